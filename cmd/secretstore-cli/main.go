package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/energywebfoundation/secretstore-go/rpcapi"
	"github.com/energywebfoundation/secretstore-go/secretstore"
	"github.com/energywebfoundation/secretstore-go/session"
)

var flagSessionURL *cli.StringFlag = &cli.StringFlag{
	Name:  "ss-url",
	Value: "http://127.0.0.1:8090",
	Usage: "Secret Store cluster node session endpoint",
}
var flagRPCURL *cli.StringFlag = &cli.StringFlag{
	Name:  "rpc-url",
	Value: "http://127.0.0.1:8545",
	Usage: "trusted node JSON-RPC endpoint",
}
var flagAccount *cli.StringFlag = &cli.StringFlag{
	Name:  "account",
	Usage: "account address used for signing and en/decryption",
}
var flagPassword *cli.StringFlag = &cli.StringFlag{
	Name:  "password",
	Usage: "password unlocking the account on the trusted node",
}
var flagKeyID *cli.StringFlag = &cli.StringFlag{
	Name:     "key-id",
	Required: true,
	Usage:    "server key ID, a 64-char hex string",
}
var flagSignedKeyID *cli.StringFlag = &cli.StringFlag{
	Name:  "signed-key-id",
	Usage: "precomputed signed server key ID; computed via secretstore_signRawHash when omitted",
}
var flagThreshold *cli.UintFlag = &cli.UintFlag{
	Name:  "threshold",
	Value: 1,
	Usage: "minimum number of nodes required to cooperate on the key",
}

const usage string = `Command line client for a Secret Store cluster.

Session operations talk to the cluster node given by --ss-url. Operations
requiring a signed server key ID compute it through the trusted node at
--rpc-url unless --signed-key-id is given.`

func main() {
	app := &cli.App{
		Name:  "secretstore-cli",
		Usage: usage,
		Flags: []cli.Flag{
			flagSessionURL,
			flagRPCURL,
			flagAccount,
			flagPassword,
		},
		Commands: []*cli.Command{
			{
				Name:  "server-key",
				Usage: "server key generation and retrieval sessions",
				Subcommands: []*cli.Command{
					{
						Name:  "generate",
						Flags: []cli.Flag{flagKeyID, flagSignedKeyID, flagThreshold},
						Action: func(cCtx *cli.Context) error {
							c, err := NewClient(cCtx)
							if err != nil {
								return err
							}
							return c.GenerateServerKey(cCtx.String("key-id"), cCtx.Uint("threshold"))
						},
					},
					{
						Name:  "retrieve",
						Flags: []cli.Flag{flagKeyID, flagSignedKeyID},
						Action: func(cCtx *cli.Context) error {
							c, err := NewClient(cCtx)
							if err != nil {
								return err
							}
							return c.RetrieveServerKeyPublic(cCtx.String("key-id"))
						},
					},
				},
			},
			{
				Name:  "document-key",
				Usage: "document key sessions",
				Subcommands: []*cli.Command{
					{
						Name:  "store",
						Flags: []cli.Flag{flagKeyID, flagSignedKeyID,
							&cli.StringFlag{Name: "common-point", Usage: "common point of the generated document key"},
							&cli.StringFlag{Name: "encrypted-point", Usage: "encrypted point of the generated document key"},
						},
						Action: func(cCtx *cli.Context) error {
							c, err := NewClient(cCtx)
							if err != nil {
								return err
							}
							return c.StoreDocumentKey(cCtx.String("key-id"), cCtx.String("common-point"), cCtx.String("encrypted-point"))
						},
					},
					{
						Name:  "generate",
						Usage: "generate a server key and a bound document key in one session",
						Flags: []cli.Flag{flagKeyID, flagSignedKeyID, flagThreshold},
						Action: func(cCtx *cli.Context) error {
							c, err := NewClient(cCtx)
							if err != nil {
								return err
							}
							return c.GenerateServerAndDocumentKey(cCtx.String("key-id"), cCtx.Uint("threshold"))
						},
					},
					{
						Name: "retrieve",
						Flags: []cli.Flag{flagKeyID, flagSignedKeyID,
							&cli.BoolFlag{Name: "shadow", Usage: "retrieve the key in shadow form for client-side reconstruction"},
						},
						Action: func(cCtx *cli.Context) error {
							c, err := NewClient(cCtx)
							if err != nil {
								return err
							}
							return c.RetrieveDocumentKey(cCtx.String("key-id"), cCtx.Bool("shadow"))
						},
					},
				},
			},
			{
				Name:  "sign",
				Usage: "threshold signing sessions",
				Flags: []cli.Flag{flagKeyID, flagSignedKeyID,
					&cli.StringFlag{Name: "message-hash", Required: true, Usage: "hash of the message to sign"},
					&cli.StringFlag{Name: "scheme", Value: "schnorr", Usage: "signature scheme: 'schnorr' or 'ecdsa'"},
				},
				Action: func(cCtx *cli.Context) error {
					c, err := NewClient(cCtx)
					if err != nil {
						return err
					}
					return c.Sign(cCtx.String("key-id"), cCtx.String("message-hash"), cCtx.String("scheme"))
				},
			},
			{
				Name:  "nodes-set-change",
				Usage: "migrate key shares to a new node set",
				Flags: []cli.Flag{
					&cli.StringSliceFlag{Name: "old-set", Usage: "node IDs of the current set"},
					&cli.StringSliceFlag{Name: "new-set", Required: true, Usage: "node IDs of the new set"},
				},
				Action: func(cCtx *cli.Context) error {
					c, err := NewClient(cCtx)
					if err != nil {
						return err
					}
					return c.NodesSetChange(cCtx.StringSlice("old-set"), cCtx.StringSlice("new-set"))
				},
			},
			{
				Name:  "rpc",
				Usage: "local operations on the trusted node",
				Subcommands: []*cli.Command{
					{
						Name:  "sign-raw-hash",
						Flags: []cli.Flag{&cli.StringFlag{Name: "hash", Required: true}},
						Action: func(cCtx *cli.Context) error {
							c, err := NewClient(cCtx)
							if err != nil {
								return err
							}
							return c.SignRawHash(cCtx.String("hash"))
						},
					},
					{
						Name:  "generate-document-key",
						Flags: []cli.Flag{&cli.StringFlag{Name: "server-key", Required: true}},
						Action: func(cCtx *cli.Context) error {
							c, err := NewClient(cCtx)
							if err != nil {
								return err
							}
							return c.GenerateDocumentKey(cCtx.String("server-key"))
						},
					},
					{
						Name: "encrypt",
						Flags: []cli.Flag{
							&cli.StringFlag{Name: "document", Required: true, Usage: "hex-encoded document"},
							&cli.StringFlag{Name: "key", Required: true, Usage: "encrypted document key"},
						},
						Action: func(cCtx *cli.Context) error {
							c, err := NewClient(cCtx)
							if err != nil {
								return err
							}
							return c.Encrypt(cCtx.String("document"), cCtx.String("key"))
						},
					},
					{
						Name: "decrypt",
						Flags: []cli.Flag{
							&cli.StringFlag{Name: "document", Required: true, Usage: "hex-encoded encrypted document"},
							&cli.StringFlag{Name: "key", Required: true, Usage: "encrypted document key"},
						},
						Action: func(cCtx *cli.Context) error {
							c, err := NewClient(cCtx)
							if err != nil {
								return err
							}
							return c.Decrypt(cCtx.String("document"), cCtx.String("key"))
						},
					},
					{
						Name: "shadow-decrypt",
						Flags: []cli.Flag{
							&cli.StringFlag{Name: "document", Required: true, Usage: "hex-encoded encrypted document"},
							&cli.StringFlag{Name: "decrypted-secret", Required: true},
							&cli.StringFlag{Name: "common-point", Required: true},
							&cli.StringSliceFlag{Name: "shadow", Required: true, Usage: "decrypt shadow, in node order (repeatable)"},
						},
						Action: func(cCtx *cli.Context) error {
							c, err := NewClient(cCtx)
							if err != nil {
								return err
							}
							return c.ShadowDecrypt(cCtx.String("document"), cCtx.String("decrypted-secret"), cCtx.String("common-point"), cCtx.StringSlice("shadow"))
						},
					},
					{
						Name:  "servers-set-hash",
						Flags: []cli.Flag{&cli.StringSliceFlag{Name: "node-id", Required: true}},
						Action: func(cCtx *cli.Context) error {
							c, err := NewClient(cCtx)
							if err != nil {
								return err
							}
							return c.ServersSetHash(cCtx.StringSlice("node-id"))
						},
					},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// Client bundles the two secret store clients with the account credentials
// shared by all commands.
type Client struct {
	Session *session.Client
	RPC     *rpcapi.Client

	Account     string
	Password    string
	SignedKeyID string
}

func NewClient(cCtx *cli.Context) (*Client, error) {
	sessionClient, err := session.NewClient(cCtx.String(flagSessionURL.Name), nil)
	if err != nil {
		return nil, fmt.Errorf("could not create session client: %w", err)
	}

	rpcClient, err := rpcapi.NewClient(cCtx.String(flagRPCURL.Name))
	if err != nil {
		return nil, fmt.Errorf("could not create RPC client: %w", err)
	}

	return &Client{
		Session:     sessionClient,
		RPC:         rpcClient,
		Account:     cCtx.String(flagAccount.Name),
		Password:    cCtx.String(flagPassword.Name),
		SignedKeyID: cCtx.String(flagSignedKeyID.Name),
	}, nil
}

// signedKeyID returns the signed server key ID for keyID, computing it
// through the trusted node unless it was supplied on the command line.
func (c *Client) signedKeyID(keyID string) (string, error) {
	if c.SignedKeyID != "" {
		return c.SignedKeyID, nil
	}
	signed, err := c.RPC.SignRawHash(context.Background(), c.Account, c.Password, keyID)
	if err != nil {
		return "", fmt.Errorf("could not sign server key ID: %w", err)
	}
	return signed, nil
}

func (c *Client) GenerateServerKey(keyID string, threshold uint) error {
	signedKeyID, err := c.signedKeyID(keyID)
	if err != nil {
		return err
	}
	serverKey, err := c.Session.GenerateServerKey(context.Background(), keyID, signedKeyID, threshold)
	if err != nil {
		return fmt.Errorf("server key generation session failed: %w", err)
	}
	fmt.Println(serverKey)
	return nil
}

func (c *Client) RetrieveServerKeyPublic(keyID string) error {
	signedKeyID, err := c.signedKeyID(keyID)
	if err != nil {
		return err
	}
	serverKey, err := c.Session.RetrieveServerKeyPublic(context.Background(), keyID, signedKeyID)
	if err != nil {
		return fmt.Errorf("server key retrieval session failed: %w", err)
	}
	fmt.Println(serverKey)
	return nil
}

func (c *Client) StoreDocumentKey(keyID, commonPoint, encryptedPoint string) error {
	signedKeyID, err := c.signedKeyID(keyID)
	if err != nil {
		return err
	}
	_, err = c.Session.StoreDocumentKey(context.Background(), keyID, signedKeyID, secretstore.StorePortions{
		CommonPoint:    commonPoint,
		EncryptedPoint: encryptedPoint,
	})
	if err != nil {
		return fmt.Errorf("document key store session failed: %w", err)
	}
	fmt.Println("document key stored")
	return nil
}

func (c *Client) GenerateServerAndDocumentKey(keyID string, threshold uint) error {
	signedKeyID, err := c.signedKeyID(keyID)
	if err != nil {
		return err
	}
	documentKey, err := c.Session.GenerateServerAndDocumentKey(context.Background(), keyID, signedKeyID, threshold)
	if err != nil {
		return fmt.Errorf("server and document key generation session failed: %w", err)
	}
	fmt.Println(documentKey)
	return nil
}

func (c *Client) RetrieveDocumentKey(keyID string, shadow bool) error {
	signedKeyID, err := c.signedKeyID(keyID)
	if err != nil {
		return err
	}

	if shadow {
		portions, err := c.Session.ShadowRetrieveDocumentKey(context.Background(), keyID, signedKeyID)
		if err != nil {
			return fmt.Errorf("shadow retrieval session failed: %w", err)
		}
		encoded, _ := json.Marshal(portions)
		fmt.Println(string(encoded))
		return nil
	}

	documentKey, err := c.Session.RetrieveDocumentKey(context.Background(), keyID, signedKeyID)
	if err != nil {
		return fmt.Errorf("document key retrieval session failed: %w", err)
	}
	fmt.Println(documentKey)
	return nil
}

func (c *Client) Sign(keyID, messageHash, scheme string) error {
	signedKeyID, err := c.signedKeyID(keyID)
	if err != nil {
		return err
	}

	var signature string
	switch scheme {
	case "schnorr":
		signature, err = c.Session.SignSchnorr(context.Background(), keyID, signedKeyID, messageHash)
	case "ecdsa":
		signature, err = c.Session.SignEcdsa(context.Background(), keyID, signedKeyID, messageHash)
	default:
		return fmt.Errorf("unknown signature scheme %q", scheme)
	}
	if err != nil {
		return fmt.Errorf("signing session failed: %w", err)
	}
	fmt.Println(signature)
	return nil
}

// NodesSetChange hashes and signs both node sets through the trusted node,
// then starts the migration session.
func (c *Client) NodesSetChange(oldSet, newSet []string) error {
	ctx := context.Background()

	oldSetHash, err := c.RPC.ServersSetHash(ctx, oldSet)
	if err != nil {
		return fmt.Errorf("could not hash old node set: %w", err)
	}
	newSetHash, err := c.RPC.ServersSetHash(ctx, newSet)
	if err != nil {
		return fmt.Errorf("could not hash new node set: %w", err)
	}

	signedOldSetHash, err := c.RPC.SignRawHash(ctx, c.Account, c.Password, oldSetHash)
	if err != nil {
		return fmt.Errorf("could not sign old set hash: %w", err)
	}
	signedNewSetHash, err := c.RPC.SignRawHash(ctx, c.Account, c.Password, newSetHash)
	if err != nil {
		return fmt.Errorf("could not sign new set hash: %w", err)
	}

	result, err := c.Session.NodesSetChange(ctx, newSet, signedOldSetHash, signedNewSetHash)
	if err != nil {
		return fmt.Errorf("servers set change session failed: %w", err)
	}
	fmt.Println(result)
	return nil
}

func (c *Client) SignRawHash(rawHash string) error {
	signature, err := c.RPC.SignRawHash(context.Background(), c.Account, c.Password, rawHash)
	if err != nil {
		return fmt.Errorf("signing failed: %w", err)
	}
	fmt.Println(signature)
	return nil
}

func (c *Client) GenerateDocumentKey(serverKey string) error {
	documentKey, err := c.RPC.GenerateDocumentKey(context.Background(), c.Account, c.Password, serverKey)
	if err != nil {
		return fmt.Errorf("document key generation failed: %w", err)
	}
	encoded, _ := json.Marshal(documentKey)
	fmt.Println(string(encoded))
	return nil
}

func (c *Client) Encrypt(document, encryptedDocumentKey string) error {
	encrypted, err := c.RPC.Encrypt(context.Background(), c.Account, c.Password, document, encryptedDocumentKey)
	if err != nil {
		return fmt.Errorf("encryption failed: %w", err)
	}
	fmt.Println(encrypted)
	return nil
}

func (c *Client) Decrypt(encryptedDocument, encryptedDocumentKey string) error {
	decrypted, err := c.RPC.Decrypt(context.Background(), c.Account, c.Password, encryptedDocument, encryptedDocumentKey)
	if err != nil {
		return fmt.Errorf("decryption failed: %w", err)
	}
	fmt.Println(decrypted)
	return nil
}

func (c *Client) ShadowDecrypt(encryptedDocument, decryptedSecret, commonPoint string, decryptShadows []string) error {
	decrypted, err := c.RPC.ShadowDecrypt(context.Background(), c.Account, c.Password, encryptedDocument, secretstore.ShadowPortions{
		DecryptedSecret: decryptedSecret,
		CommonPoint:     commonPoint,
		DecryptShadows:  decryptShadows,
	})
	if err != nil {
		return fmt.Errorf("shadow decryption failed: %w", err)
	}
	fmt.Println(decrypted)
	return nil
}

func (c *Client) ServersSetHash(nodeIDs []string) error {
	hash, err := c.RPC.ServersSetHash(context.Background(), nodeIDs)
	if err != nil {
		return fmt.Errorf("servers set hash failed: %w", err)
	}
	fmt.Println(hash)
	return nil
}
