// Command sebconf produces and inspects SEB configuration artifacts: it
// renders configuration documents to plist XML, seals them into
// distributable containers, computes Config Keys and request hashes, and
// publishes sealed files to an artifact store.
package main

import (
	"crypto/ed25519"
	"encoding/hex"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"examlock.dev/sebconf/artifact"
	"examlock.dev/sebconf/attest"
	"examlock.dev/sebconf/canonical"
	"examlock.dev/sebconf/configkey"
	"examlock.dev/sebconf/container"
	"examlock.dev/sebconf/plist"
	"examlock.dev/sebconf/storage"
	"examlock.dev/sebconf/storage/grpcstore"
	"examlock.dev/sebconf/storage/localfs"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, out io.Writer, errOut io.Writer) int {
	if len(args) == 0 {
		printUsage(errOut)
		return 2
	}

	switch args[0] {
	case "config-key":
		return cmdConfigKey(args[1:], out, errOut)
	case "canonical":
		return cmdCanonical(args[1:], out, errOut)
	case "plist":
		return cmdPlist(args[1:], out, errOut)
	case "seal":
		return cmdSeal(args[1:], out, errOut)
	case "open":
		return cmdOpen(args[1:], out, errOut)
	case "request-hash":
		return cmdRequestHash(args[1:], out, errOut)
	case "verify":
		return cmdVerify(args[1:], out, errOut)
	case "artifact-id":
		return cmdArtifactID(args[1:], out, errOut)
	case "store":
		return cmdStore(args[1:], out, errOut)
	case "attest":
		return cmdAttest(args[1:], out, errOut)
	case "attest-verify":
		return cmdAttestVerify(args[1:], out, errOut)
	case "help", "-h", "--help":
		printUsage(out)
		return 0
	default:
		fmt.Fprintf(errOut, "unknown command: %s\n\n", args[0])
		printUsage(errOut)
		return 2
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "sebconf: SEB configuration artifact tool")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  sebconf config-key <config.json>")
	fmt.Fprintln(w, "  sebconf canonical <config.json>")
	fmt.Fprintln(w, "  sebconf plist <config.json>")
	fmt.Fprintln(w, "  sebconf seal --in <config.json> --out <file.seb> [--password <pw>]")
	fmt.Fprintln(w, "  sebconf open --in <file.seb> [--password <pw>]")
	fmt.Fprintln(w, "  sebconf request-hash --url <url> --key <configkey>")
	fmt.Fprintln(w, "  sebconf verify --url <url> --key <configkey> --hash <received>")
	fmt.Fprintln(w, "  sebconf artifact-id <file.seb>")
	fmt.Fprintln(w, "  sebconf store put|get|has (--root <dir> | --addr <host:port>) [--id <cid>] [--in <file>] [--out <file>]")
	fmt.Fprintln(w, "  sebconf attest --artifact <file.seb> --seed-hex <64hex> [--config-key <key>] [--description <text>] [--out <file>]")
	fmt.Fprintln(w, "  sebconf attest-verify <file>")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Notes:")
	fmt.Fprintln(w, "  - config.json is decoded into the configuration value model; integral")
	fmt.Fprintln(w, "    JSON numbers become integers, everything else becomes reals")
	fmt.Fprintln(w, "  - --seed-hex is a 32-byte (64 hex chars) ed25519 seed")
}

func cmdConfigKey(args []string, out io.Writer, errOut io.Writer) int {
	if len(args) != 1 {
		fmt.Fprintln(errOut, "usage: sebconf config-key <config.json>")
		return 2
	}
	doc, err := readConfigJSON(args[0])
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 1
	}
	key, err := configkey.New(configkey.LocalDigester()).ComputeConfigKey(doc)
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 1
	}
	fmt.Fprintln(out, key)
	return 0
}

func cmdCanonical(args []string, out io.Writer, errOut io.Writer) int {
	if len(args) != 1 {
		fmt.Fprintln(errOut, "usage: sebconf canonical <config.json>")
		return 2
	}
	doc, err := readConfigJSON(args[0])
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 1
	}
	fmt.Fprintf(out, "%s\n", canonical.Serialize(doc))
	return 0
}

func cmdPlist(args []string, out io.Writer, errOut io.Writer) int {
	if len(args) != 1 {
		fmt.Fprintln(errOut, "usage: sebconf plist <config.json>")
		return 2
	}
	doc, err := readConfigJSON(args[0])
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 1
	}
	_, _ = out.Write(plist.Render(doc))
	return 0
}

func cmdSeal(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("seal", flag.ContinueOnError)
	fs.SetOutput(errOut)
	in := fs.String("in", "", "configuration JSON file")
	outPath := fs.String("out", "", "sealed container output path")
	password := fs.String("password", "", "encrypt with this password")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *in == "" || *outPath == "" {
		fmt.Fprintln(errOut, "seal: --in and --out are required")
		return 2
	}

	doc, err := readConfigJSON(*in)
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 1
	}
	xml := plist.Render(doc)

	var sealed []byte
	if *password != "" {
		sealed, err = container.EncodeEncrypted(xml, *password)
	} else {
		sealed, err = container.EncodePlain(xml)
	}
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 1
	}
	if err := os.WriteFile(*outPath, sealed, 0o644); err != nil {
		fmt.Fprintln(errOut, err)
		return 1
	}
	fmt.Fprintln(out, artifact.ID(sealed))
	return 0
}

func cmdOpen(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("open", flag.ContinueOnError)
	fs.SetOutput(errOut)
	in := fs.String("in", "", "sealed container path")
	password := fs.String("password", "", "decryption password")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *in == "" {
		fmt.Fprintln(errOut, "open: --in is required")
		return 2
	}
	data, err := os.ReadFile(*in)
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 1
	}
	xml, err := container.Decode(data, *password)
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 1
	}
	_, _ = out.Write(xml)
	return 0
}

func cmdRequestHash(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("request-hash", flag.ContinueOnError)
	fs.SetOutput(errOut)
	url := fs.String("url", "", "request URL")
	key := fs.String("key", "", "Config Key")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *url == "" || *key == "" {
		fmt.Fprintln(errOut, "request-hash: --url and --key are required")
		return 2
	}
	hash, err := configkey.New(configkey.LocalDigester()).ComputeRequestHash(*url, *key)
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 1
	}
	fmt.Fprintln(out, hash)
	return 0
}

func cmdVerify(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("verify", flag.ContinueOnError)
	fs.SetOutput(errOut)
	url := fs.String("url", "", "request URL")
	key := fs.String("key", "", "Config Key")
	hash := fs.String("hash", "", "received request hash")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *url == "" || *key == "" || *hash == "" {
		fmt.Fprintln(errOut, "verify: --url, --key and --hash are required")
		return 2
	}
	ok, err := configkey.New(configkey.LocalDigester()).Verify(*url, *key, *hash)
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 1
	}
	if !ok {
		fmt.Fprintln(out, "MISMATCH")
		return 1
	}
	fmt.Fprintln(out, "OK")
	return 0
}

func cmdArtifactID(args []string, out io.Writer, errOut io.Writer) int {
	if len(args) != 1 {
		fmt.Fprintln(errOut, "usage: sebconf artifact-id <file.seb>")
		return 2
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 1
	}
	fmt.Fprintln(out, artifact.ID(data))
	return 0
}

func cmdStore(args []string, out io.Writer, errOut io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintln(errOut, "usage: sebconf store put|get|has ...")
		return 2
	}
	sub := args[0]

	fs := flag.NewFlagSet("store "+sub, flag.ContinueOnError)
	fs.SetOutput(errOut)
	root := fs.String("root", "", "local store root directory")
	addr := fs.String("addr", "", "artifact store gRPC address")
	id := fs.String("id", "", "artifact ID")
	in := fs.String("in", "", "input file (put)")
	outPath := fs.String("out", "", "output file (get); stdout when omitted")
	if err := fs.Parse(args[1:]); err != nil {
		return 2
	}

	st, cleanup, err := openStore(*root, *addr)
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 1
	}
	defer cleanup()

	switch sub {
	case "put":
		if *in == "" {
			fmt.Fprintln(errOut, "store put: --in is required")
			return 2
		}
		data, err := os.ReadFile(*in)
		if err != nil {
			fmt.Fprintln(errOut, err)
			return 1
		}
		stored, err := st.Put(data)
		if err != nil {
			fmt.Fprintln(errOut, err)
			return 1
		}
		fmt.Fprintln(out, stored.String())
		return 0

	case "get":
		cid, err := artifact.Parse(*id)
		if err != nil {
			fmt.Fprintln(errOut, err)
			return 2
		}
		data, err := st.Get(cid)
		if err != nil {
			fmt.Fprintln(errOut, err)
			return 1
		}
		if *outPath == "" {
			_, _ = out.Write(data)
			return 0
		}
		if err := os.WriteFile(*outPath, data, 0o644); err != nil {
			fmt.Fprintln(errOut, err)
			return 1
		}
		return 0

	case "has":
		cid, err := artifact.Parse(*id)
		if err != nil {
			fmt.Fprintln(errOut, err)
			return 2
		}
		if !st.Has(cid) {
			fmt.Fprintln(out, "absent")
			return 1
		}
		fmt.Fprintln(out, "present")
		return 0

	default:
		fmt.Fprintf(errOut, "unknown store subcommand: %s\n", sub)
		return 2
	}
}

func openStore(root, addr string) (storage.Store, func(), error) {
	switch {
	case root != "" && addr != "":
		return nil, nil, errors.New("store: --root and --addr are mutually exclusive")
	case root != "":
		st, err := localfs.New(root)
		if err != nil {
			return nil, nil, err
		}
		return st, func() {}, nil
	case addr != "":
		client, err := grpcstore.Dial(addr, grpcstore.DialOptions{Timeout: 10 * time.Second})
		if err != nil {
			return nil, nil, err
		}
		return client, func() { _ = client.Close() }, nil
	default:
		return nil, nil, errors.New("store: --root or --addr is required")
	}
}

func cmdAttest(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("attest", flag.ContinueOnError)
	fs.SetOutput(errOut)
	artifactPath := fs.String("artifact", "", "sealed container to attest")
	seedHex := fs.String("seed-hex", "", "32-byte ed25519 seed, hex encoded")
	cfgKey := fs.String("config-key", "", "Config Key to bind (optional)")
	description := fs.String("description", "", "human-readable description (optional)")
	outPath := fs.String("out", "", "attestation output path; stdout when omitted")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *artifactPath == "" || *seedHex == "" {
		fmt.Fprintln(errOut, "attest: --artifact and --seed-hex are required")
		return 2
	}

	seed, err := hex.DecodeString(*seedHex)
	if err != nil || len(seed) != ed25519.SeedSize {
		fmt.Fprintln(errOut, "attest: --seed-hex must be 64 hex characters")
		return 2
	}
	data, err := os.ReadFile(*artifactPath)
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 1
	}
	issuer, err := attest.IssuerKeyFromSeed(seed)
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 1
	}

	doc := attest.Document{
		ArtifactCID: artifact.ID(data),
		ConfigKey:   *cfgKey,
		Description: *description,
		IssuedAt:    time.Now().UTC(),
		IssuerKey:   issuer,
	}
	signed, err := attest.SignEd25519(doc, ed25519.NewKeyFromSeed(seed))
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 1
	}
	if *outPath == "" {
		_, _ = out.Write(signed)
		return 0
	}
	if err := os.WriteFile(*outPath, signed, 0o644); err != nil {
		fmt.Fprintln(errOut, err)
		return 1
	}
	return 0
}

func cmdAttestVerify(args []string, out io.Writer, errOut io.Writer) int {
	if len(args) != 1 {
		fmt.Fprintln(errOut, "usage: sebconf attest-verify <file>")
		return 2
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 1
	}
	a, err := attest.Parse(data)
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 1
	}
	if err := a.Verify(); err != nil {
		fmt.Fprintln(errOut, err)
		return 1
	}
	fmt.Fprintf(out, "OK artifact=%s issuer=%s\n", a.ArtifactCID(), a.IssuerKey())
	return 0
}
