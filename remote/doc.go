// Package remote provides the primary backends the service facade calls
// before falling back to the mock engine.
//
// SQLBackend renders typed statements for a database/sql driver:
//
//	backend, err := remote.OpenSQL("postgres", dsn)
//
// RESTBackend speaks to a hosted PostgREST-style API:
//
//	backend := remote.NewRESTBackend("https://project.example.co", apiKey)
//
// Every failure is a *BackendError, which matches ErrBackendUnavailable.
package remote
