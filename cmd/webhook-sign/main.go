// Command webhook-sign prints the signature the document-signing provider
// would attach to a body, for exercising the webhook endpoint by hand.
//
//	WEBHOOK_SHARED_KEY=... webhook-sign -body events.json -url https://edge.example.com/api/webhooks/signing
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"net/url"
	"os"

	"github.com/upb/lending-edge/internal/webhook"
)

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "webhook-sign: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdin io.Reader, stdout io.Writer) error {
	fs := flag.NewFlagSet("webhook-sign", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	bodyPath := fs.String("body", "-", "file holding the exact request body, - for stdin")
	key := fs.String("key", os.Getenv("WEBHOOK_SHARED_KEY"), "shared key (defaults to WEBHOOK_SHARED_KEY)")
	target := fs.String("url", "", "optional endpoint URL; prints it with the signature appended")
	param := fs.String("param", "signature", "signature query parameter name")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *key == "" {
		return errors.New("a shared key is required (-key or WEBHOOK_SHARED_KEY)")
	}

	var (
		body []byte
		err  error
	)
	if *bodyPath == "-" {
		body, err = io.ReadAll(stdin)
	} else {
		body, err = os.ReadFile(*bodyPath)
	}
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}

	signature := webhook.Sign(body, []byte(*key))
	if *target == "" {
		_, err = fmt.Fprintln(stdout, signature)
		return err
	}

	u, err := url.Parse(*target)
	if err != nil {
		return fmt.Errorf("parse url: %w", err)
	}
	q := u.Query()
	q.Set(*param, signature)
	u.RawQuery = q.Encode()

	_, err = fmt.Fprintln(stdout, u.String())
	return err
}
