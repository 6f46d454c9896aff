package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"roofquote/estimator"
	"roofquote/services"
	"roofquote/testhelpers"
)

// newTestRequestEvent creates a RequestEvent suitable for handler tests.
func newTestRequestEvent(app *pocketbase.PocketBase, req *http.Request, rec *httptest.ResponseRecorder) *core.RequestEvent {
	e := &core.RequestEvent{}
	e.App = app
	e.Request = req
	e.Response = rec
	return e
}

// newTestPool builds an estimator pool over the test app with a short
// debounce so tests never wait on the real flush delay.
func newTestPool(app *pocketbase.PocketBase) *estimator.Pool {
	return estimator.NewPool(
		estimator.NewQuoteRecords(app),
		services.DefaultCatalog(),
		estimator.WithFlushDelay(10*time.Millisecond),
	)
}

// newQuoteFixture creates a contact+quote pair and returns the quote id.
func newQuoteFixture(t *testing.T, app *pocketbase.PocketBase) string {
	t.Helper()
	contact := testhelpers.CreateTestContact(t, app, "Fixture Contact")
	quote := testhelpers.CreateTestQuote(t, app, contact.Id, "RQ-25-500")
	return quote.Id
}
