/*
Package client provides a Go client library for the renderq coordinator's
HTTP API.

	coordinator (pkg/api)
	     ^
	     | HTTP/JSON
	     |
	client.Client  <-- used by cmd/renderq's thin CLI subcommands

It holds no state beyond a base URL and an *http.Client: one method per
coordinator endpoint that the CLI uses (worker-agent and event-stream
endpoints have no method here), each marshaling a request and unmarshaling the
response into the matching pkg/types struct. Errors from non-2xx responses
are returned as plain errors carrying the response body, since the
coordinator always replies with a JSON error envelope on failure.
*/
package client
