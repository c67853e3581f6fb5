package graph

import (
	"context"
	"strings"
	"testing"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/culturemech/culturemech/internal/domain/recipe"
	"github.com/culturemech/culturemech/internal/telemetry/logging"
)

type recordedQuery struct {
	cypher string
	params map[string]any
}

type fakeTransaction struct {
	queries *[]recordedQuery
}

func (t *fakeTransaction) Run(ctx context.Context, cypher string, params map[string]any) (Result, error) {
	*t.queries = append(*t.queries, recordedQuery{cypher: cypher, params: params})
	return &fakeResult{}, nil
}

type fakeResult struct{}

func (r *fakeResult) Next(ctx context.Context) bool { return false }
func (r *fakeResult) Record() *neo4j.Record         { return nil }
func (r *fakeResult) Err() error                    { return nil }

type fakeSession struct {
	queries *[]recordedQuery
}

func (s *fakeSession) ExecuteWrite(ctx context.Context, work func(Transaction) (any, error)) (any, error) {
	return work(&fakeTransaction{queries: s.queries})
}

func (s *fakeSession) Close(ctx context.Context) error { return nil }

type fakeInternalDriver struct {
	session internalSession
}

func (d *fakeInternalDriver) VerifyConnectivity(ctx context.Context) error { return nil }
func (d *fakeInternalDriver) NewSession(ctx context.Context, _ neo4j.SessionConfig) internalSession {
	return d.session
}
func (d *fakeInternalDriver) Close(ctx context.Context) error { return nil }

func newTestDriver() (*Driver, *[]recordedQuery) {
	queries := &[]recordedQuery{}
	return &Driver{
		driver: &fakeInternalDriver{session: &fakeSession{queries: queries}},
		logger: logging.NewNopLogger(),
	}, queries
}

func queryCyphers(queries []recordedQuery) []string {
	out := make([]string, len(queries))
	for i, q := range queries {
		out[i] = q.cypher
	}
	return out
}

func anyContains(cyphers []string, needle string) bool {
	for _, c := range cyphers {
		if strings.Contains(c, needle) {
			return true
		}
	}
	return false
}

func TestProjectRecipe_WritesNodeAndRelations(t *testing.T) {
	driver, queries := newTestDriver()
	p := NewProjector(driver)

	r := &recipe.Recipe{
		ID:       "komodo-1",
		Name:     "Test Medium",
		Category: "bacterial",
		TargetOrganisms: []recipe.Organism{
			{PreferredTerm: "Escherichia coli"},
		},
		CrossReferences: map[string]string{"dsmz_medium_number": "1"},
	}
	r.Provenance.SourceDB = "komodo"
	r.Provenance.SourceID = "1"

	err := p.ProjectRecipe(context.Background(), r)
	require.NoError(t, err)
	assert.Len(t, *queries, 3)
	assert.True(t, anyContains(queryCyphers(*queries), "MERGE (r:Recipe"))
	assert.True(t, anyContains(queryCyphers(*queries), "TARGETS"))
	assert.True(t, anyContains(queryCyphers(*queries), "REFERENCES"))
}

func TestProjectRecipe_SkipsEmptyOrganismTerm(t *testing.T) {
	driver, queries := newTestDriver()
	p := NewProjector(driver)

	r := &recipe.Recipe{
		ID:              "komodo-2",
		TargetOrganisms: []recipe.Organism{{PreferredTerm: ""}},
	}

	err := p.ProjectRecipe(context.Background(), r)
	require.NoError(t, err)
	assert.Len(t, *queries, 1)
}

func TestProjectMergeGroup_SkipsCanonicalSelfLink(t *testing.T) {
	driver, queries := newTestDriver()
	p := NewProjector(driver)

	err := p.ProjectMergeGroup(context.Background(), "canon-1", []string{"canon-1", "member-2"})
	require.NoError(t, err)
	assert.Len(t, *queries, 1)
}

func TestProjectComposition_WritesRelation(t *testing.T) {
	driver, queries := newTestDriver()
	p := NewProjector(driver)

	err := p.ProjectComposition(context.Background(), "komodo-1", "dsmz-1", "1")
	require.NoError(t, err)
	require.Len(t, *queries, 1)
	assert.Equal(t, "komodo-1", (*queries)[0].params["komodo"])
}
