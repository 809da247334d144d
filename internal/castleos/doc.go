// Package castleos provides a client for the CastleOS controller web API.
//
// The controller answers every call with a JSON body, or an empty body when it
// has nothing to say (including when the token is wrong). Listings are
// hydrated into Device, Group and Scene values that keep a reference to the
// Client that produced them, so they can issue further commands:
//
//	client := castleos.NewClient(castleos.Settings{Host: "castle.lan", Username: "admin", Password: "secret"})
//	devices, err := client.Devices(ctx)
//	...
//	err = devices[0].TurnOn(ctx)
//
// The Client must outlive the entities it returns. All requests are GETs with
// parameters in the query string; the session token goes in the
// X-CastleOS-Authorization header as "username:token".
package castleos
