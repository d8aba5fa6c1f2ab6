/*
Package mocknode provides an in-process fake Secret Store node for local
development and tests.

The node serves both wire contracts the real cluster node exposes: the HTTP
session API (server key, document key, signing, and servers set change
sessions) and the secretstore_* JSON-RPC module on POST /. Key material is
derived deterministically with keccak and carries no cryptographic meaning;
encrypt remembers its inputs so decrypt and shadowDecrypt round-trip.

Use Node with a chi router directly in tests, or wrap it in Server for a
standalone process with request logging, health checks, and drain support
(see cmd/mocknode).
*/
package mocknode
