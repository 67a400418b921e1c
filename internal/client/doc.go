// Package client is a RESP2 client for minikv.
//
// A Client owns one TCP connection and runs one request at a time. Blocking
// calls honour the context deadline and cancellation by moving the socket
// deadline.
//
//	c, err := client.Dial(ctx, "127.0.0.1:6379")
//	if err != nil { ... }
//	defer c.Close()
//	_ = c.Set(ctx, "greeting", []byte("hello"), time.Minute)
//
// Subscribe switches the connection into subscriber mode and returns a
// Subscription; the Client must not be used for other requests afterwards.
package client
