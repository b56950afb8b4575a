package trellis

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
)

// RegistrationIntegrationTestSuite drives catalog modules through a full
// load and calls the composed handlers.
type RegistrationIntegrationTestSuite struct {
	suite.Suite
	store   *Store
	catalog *Catalog
	rec     *Recorder
	log     []string
}

func (s *RegistrationIntegrationTestSuite) SetupTest() {
	s.log = nil
	reg := NewMiddlewareRegistry()
	s.Require().NoError(reg.Register("Trace", tagger(&s.log, "trace")))

	s.store = NewStore().WithMiddlewareRegistry(reg)
	s.store.Route(outerRoute{}, "/api", UseNamed("Trace"), End(tagger(&s.log, "outer-end")), Nest(innerRoute{}))
	s.store.Endpoint(outerRoute{}, "GetStatus", GET)
	s.store.Route(innerRoute{}, "/users", End(tagger(&s.log, "inner-end")))
	s.store.Endpoint(innerRoute{}, "Get", GET)
	s.store.Endpoint(innerRoute{}, "Signup", POST, At("/signup"))
	s.store.Endpoint(innerRoute{}, "Remove", DELETE, At("/{id:uuid}"), Handler(func(RequestContext) error {
		return NewHTTPError(409, "conflict")
	}))
	s.store.Static(assetsDir{}, "/", "./public")

	s.catalog = NewCatalog()
	s.catalog.Register("routes/api/index", outerRoute{})
	s.catalog.Register("routes/index", assetsDir{})
	s.rec = NewRecorder()
}

func (s *RegistrationIntegrationTestSuite) load(opts ...RegistrarOption) (*Node, *Report, error) {
	root := NewNode()
	opts = append([]RegistrarOption{WithReporter(s.rec)}, opts...)
	report, err := NewRegistrar(s.store, opts...).Load(root, s.catalog.Modules()...)
	return root, report, err
}

func (s *RegistrationIntegrationTestSuite) TestCatalogToMountTable() {
	root, report, err := s.load()
	s.Require().NoError(err)

	s.Len(report.Routes, 1)
	s.Len(report.Statics, 1)
	s.Empty(report.Skipped)
	s.Empty(s.rec.Warnings())

	routes := s.rec.Routes()
	s.Require().Len(routes, 2)
	s.Equal("/api/users", routes[0].FullPath)
	s.Equal("/api", routes[1].FullPath)

	var table []string
	for _, entry := range root.Routes() {
		table = append(table, string(entry.Method)+" "+entry.Path)
	}
	s.Equal([]string{
		"GET /api/users/",
		"POST /api/users/signup",
		"DELETE /api/users/{id:uuid}",
		"GET /api/status",
		"GET /",
	}, table)
}

func (s *RegistrationIntegrationTestSuite) TestEndwaresRunInnermostFirst() {
	root, _, err := s.load()
	s.Require().NoError(err)

	h, ok := root.Lookup(GET, "/api/users/")
	s.Require().True(ok)
	c := newTestContext("GET", "/api/users/", nil)
	s.Require().NoError(h(c))
	s.Equal(200, c.resp.status)
	s.Equal([]string{"trace", "inner-end", "outer-end"}, s.log)

	s.log = s.log[:0]
	h, ok = root.Lookup(GET, "/api/status")
	s.Require().True(ok)
	s.Require().NoError(h(newTestContext("GET", "/api/status", nil)))
	s.Equal([]string{"trace", "outer-end"}, s.log)
}

func (s *RegistrationIntegrationTestSuite) TestEndwaresSkippedOnError() {
	root, _, err := s.load()
	s.Require().NoError(err)

	h, ok := root.Lookup(DELETE, "/api/users/{id:uuid}")
	s.Require().True(ok)

	err = h(newTestContext("DELETE", "/api/users/x", map[string]string{"id": uuid.NewString()}))
	var he *HTTPError
	s.Require().ErrorAs(err, &he)
	s.Equal(409, he.Code)
	s.Equal([]string{"trace"}, s.log)

	s.log = s.log[:0]
	err = h(newTestContext("DELETE", "/api/users/x", map[string]string{"id": "not-a-uuid"}))
	s.Require().ErrorAs(err, &he)
	s.Equal(400, he.Code)
	s.Equal([]string{"trace"}, s.log)
}

func (s *RegistrationIntegrationTestSuite) TestFailingModule() {
	s.store.Route(loopA{}, "/a", Nest(loopB{}))
	s.store.Route(loopB{}, "/b", Nest(loopA{}))
	s.catalog = NewCatalog()
	s.catalog.Register("routes/loop", loopA{})
	s.catalog.Register("routes/api/index", outerRoute{})

	root, _, err := s.load()
	s.Require().ErrorIs(err, ErrCycle)
	s.Empty(root.Items())

	root, report, err := s.load(WithContinueOnError())
	s.Require().NoError(err)
	s.Require().Len(report.Skipped, 1)
	s.Equal("routes/loop", report.Skipped[0].Name)
	s.Len(report.Routes, 1)
	s.Require().Len(root.Items(), 1)
	s.Equal(MountItem, root.Items()[0].Kind)
}

func TestRegistrationIntegration(t *testing.T) {
	suite.Run(t, new(RegistrationIntegrationTestSuite))
}
