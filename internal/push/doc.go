// Package push holds the device-side half of a push-messaging integration:
// a stateless receiver for incoming messages and the task that fetches this
// installation's registration token and forwards it to the application server.
//
// Transport is not handled here. A gateway client (see modules/socketio_client)
// delivers messages to a Handler and supplies tokens through TokenSource; the
// application server is reached through a TokenSink (see modules/http_client).
package push
