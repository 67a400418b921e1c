// Package localserver provides a Unix socket for local management.
//
// The socket speaks a line protocol: one command per line, each reply
// ending with "OK" or "ERR <message>". Access is controlled by the socket
// file's permissions (0600), so nothing is exposed on the network.
//
//	status    print server statistics as YAML
//	reload    re-read the config file and apply the log level
//	shutdown  stop the server gracefully
//	help      list commands
//
// Usage with a stock tool:
//
//	echo status | nc -U /run/minikv.sock
package localserver
