package session

// Route is what a guarded view should show.
type Route int

const (
	// RoutePlaceholder shows a loading indicator while the session resolves.
	RoutePlaceholder Route = iota
	// RouteContent shows the protected view.
	RouteContent
	// RouteLogin sends the user to the login view.
	RouteLogin
)

// Decide maps a session state onto a route.
func Decide(st State) Route {
	switch st {
	case Pending:
		return RoutePlaceholder
	case Resolved:
		return RouteContent
	default:
		return RouteLogin
	}
}
