/*
Package resilience provides the circuit breaker guarding calls to the
application server.

# States

- Closed: requests pass through and failures are counted
- Open: requests fail immediately with ErrCircuitOpen
- Half-Open: a limited number of trial requests decide whether to close

	Closed --[ReadyToTrip]-> Open --[Timeout]-> Half-Open --[MaxRequests successes]-> Closed
	                                                |
	                                            [failure]
	                                                v
	                                              Open

# Usage

	breaker := resilience.New("server", resilience.Settings{
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts resilience.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	}, logger)

	resp, err := resilience.Execute(breaker, func() (*resty.Response, error) {
		return req.Post(url)
	})

State changes are logged. Cancelled requests are not counted as failures.
*/
package resilience
