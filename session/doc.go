/*
Package session implements the HTTP session API client of a Secret Store
cluster node.

Each operation maps to one deterministic URL built from the base URL, a fixed
path segment, and hex identifiers with their "0x" marker stripped, issues a
single GET or POST, and runs the response through a uniform pipeline: string
bodies are unwrapped from the JSON quotes the node returns them in, shadow
retrieval bodies are decoded into secretstore.DocumentKeyShadow, and any
non-success status becomes a secretstore.Error with the message

	<status text> (<status>): <unquoted body>

and the failing request attached as Meta.

# Session operations

  - GenerateServerKey / RetrieveServerKeyPublic — server key sessions
  - StoreDocumentKey / GenerateServerAndDocumentKey — document key binding
  - RetrieveDocumentKey / ShadowRetrieveDocumentKey — document key retrieval
  - SignSchnorr / SignEcdsa — threshold signing sessions
  - NodesSetChange — key share migration to a new node set

The signed server key ID passed to every operation is expected to be
precomputed by the caller, typically through rpcapi.Client.SignRawHash.

The client performs no retries and imposes no timeouts of its own; configure
those on the http.Client passed in ClientOptions. Calls with multi-part key
material validate their arguments locally and never issue a request when the
combination is incomplete.

# Example usage

	c, err := session.NewClient("http://127.0.0.1:8090", nil)
	if err != nil {
	    return err
	}

	serverKey, err := c.GenerateServerKey(ctx, serverKeyID, signedServerKeyID, 2)
*/
package session
