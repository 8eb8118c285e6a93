package locate

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/disclosure-cli/internal/model"
)

type stubProber struct {
	code  int
	err   error
	calls []string
}

func (p *stubProber) Head(_ context.Context, url string) (int, error) {
	p.calls = append(p.calls, url)
	return p.code, p.err
}

func TestLocate_ExplicitLink(t *testing.T) {
	prober := &stubProber{code: 200}
	l := New(prober, Options{})
	subject := model.Subject{ID: "124831", Name: "Jane Example", ProfileURL: "https://www.europarl.europa.eu/meps/en/124831/JANE_EXAMPLE/home"}
	html := `<html><body><a href="/meps/en/124831/JANE_EXAMPLE/declarations">Declarations</a></body></html>`

	res, err := l.Locate(context.Background(), subject, html)
	require.NoError(t, err)
	assert.Equal(t, MethodExplicit, res.Method)
	assert.Equal(t, "https://www.europarl.europa.eu/meps/en/124831/JANE_EXAMPLE/declarations", res.URL)
	assert.True(t, res.Accessible)
	assert.Empty(t, res.Note)
	assert.Equal(t, []string{res.URL}, prober.calls)
}

func TestLocate_ConstructedFromName(t *testing.T) {
	l := New(&stubProber{code: 200}, Options{})
	subject := model.Subject{ID: "97058", Name: "José García-López"}

	res, err := l.Locate(context.Background(), subject, "")
	require.NoError(t, err)
	assert.Equal(t, MethodConstructed, res.Method)
	assert.Equal(t, "https://www.europarl.europa.eu/meps/en/97058/JOSE_GARCIA_LOPEZ/declarations", res.URL)
}

func TestLocate_ConstructedPrefersProfileSlug(t *testing.T) {
	l := New(nil, Options{PathTemplate: "https://parl.test/{id}/{slug}/decl"})
	subject := model.Subject{Name: "Someone Else", ProfileURL: "https://parl.test/meps/fr/555/MARIE_CURIE"}

	res, err := l.Locate(context.Background(), subject, "<html><a href='/other'>x</a></html>")
	require.NoError(t, err)
	assert.Equal(t, "https://parl.test/555/MARIE_CURIE/decl", res.URL)
	assert.True(t, res.Accessible)
}

func TestLocate_ScoredAnchor(t *testing.T) {
	l := New(nil, Options{BaseURL: "https://parl.test/members/x/"})
	html := `<html><body>
		<a href="/news">News</a>
		<a href="docs/interests.pdf">Declaration of financial interests</a>
		<a href="/about">Financial</a>
	</body></html>`

	res, err := l.Locate(context.Background(), model.Subject{}, html)
	require.NoError(t, err)
	assert.Equal(t, MethodScored, res.Method)
	assert.Equal(t, "https://parl.test/members/x/docs/interests.pdf", res.URL)
	assert.Equal(t, 70, res.Score)
}

func TestLocate_NotFoundIsNotAPanic(t *testing.T) {
	l := New(nil, Options{})
	_, err := l.Locate(context.Background(), model.Subject{}, `<html><a href="/news">News</a></html>`)
	assert.True(t, errors.Is(err, ErrNotFound))

	_, err = l.Locate(context.Background(), model.Subject{}, "")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestLocate_ProbeFailureIsRecorded(t *testing.T) {
	subject := model.Subject{ID: "1", Name: "A B"}

	res, err := New(&stubProber{err: errors.New("dial tcp: refused")}, Options{}).Locate(context.Background(), subject, "")
	require.NoError(t, err)
	assert.False(t, res.Accessible)
	assert.Equal(t, NoteNotAccessible, res.Note)
	assert.NotEmpty(t, res.URL)

	res, err = New(&stubProber{code: 404}, Options{}).Locate(context.Background(), subject, "")
	require.NoError(t, err)
	assert.False(t, res.Accessible)
	assert.Equal(t, 404, res.StatusCode)
	assert.Equal(t, "Declaration page returned 404", res.Note)
}

func TestScoreLink(t *testing.T) {
	tests := []struct {
		text, href string
		want       int
	}{
		{"Declaration of financial interests", "/x", 50},
		{"Declaration", "/x", 30},
		{"Déclaration d'intérêts financiers", "/decl.pdf", 95},
		{"Financial", "/meps/declaration", 45},
		{"Home", "/home", 0},
		{"Erklärung der finanziellen Interessen", "/x", 75},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ScoreLink(tt.text, tt.href), tt.text)
	}
}
