package apiclient

const MaxResponseBytes = maxResponseBytes

// RefreshState exposes the coordinator state and queue length to tests.
func (c *Client) RefreshState() (string, int) {
	state, waiters := c.refresher.currentState()
	return state.String(), waiters
}
