/*
Package rpcapi implements the client for the secretstore_* JSON-RPC module
exposed by a trusted node.

The module covers the local half of the secret store workflows: signing raw
hashes, generating document keys bound to a server key, and encrypting or
decrypting documents, including shadow decryption from portions retrieved via
a session client. Method names and parameter order follow the node's module
API and are a compatibility requirement, not a choice; in particular the
encrypted document key precedes the document in encrypt and decrypt calls.

Hex-valued parameters are sent with the "0x" marker the JSON-RPC wire expects,
the opposite of the session URL convention. Node ID lists and decrypt shadows
travel verbatim.

The transport is a go-ethereum rpc.Client, either dialed from an endpoint URL
or passed in directly. JSON-RPC error responses surface as the transport's
typed errors.
*/
package rpcapi
