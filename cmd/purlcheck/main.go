// purlcheck is a CLI tool for checking how a PURL resolves.
// It sends one request per Accept value, never follows redirects, and prints
// the status, target and acceptable alternatives.
//
// Usage:
//
//	purlcheck [-accept TYPE]... [-debug] [-expect STATUS] URL...
//
// Examples:
//
//	purlcheck http://localhost:8080/naturalis/specimen/RMNH.AVES.110000
//	purlcheck -accept image/jpeg -accept application/json http://localhost:8080/naturalis/specimen/L.1234
//	purlcheck -accept application/pdf -expect 406 http://localhost:8080/naturalis/specimen/L.1234
package main

import (
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"purl-resolver/internal/negotiation"
	"purl-resolver/internal/transport"
)

// acceptList collects repeated -accept flags.
type acceptList []string

func (a *acceptList) String() string { return strings.Join(*a, ", ") }

func (a *acceptList) Set(v string) error {
	*a = append(*a, v)
	return nil
}

// ANSI color codes
var (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
	colorGray   = "\033[90m"
	colorBold   = "\033[1m"
)

func init() {
	if os.Getenv("NO_COLOR") != "" {
		disableColors()
	}
}

func disableColors() {
	colorReset, colorRed, colorGreen, colorYellow = "", "", "", ""
	colorCyan, colorGray, colorBold = "", "", ""
}

func main() {
	var (
		accept      acceptList
		debug       bool
		expect      int
		timeout     time.Duration
		fingerprint bool
		quiet       bool
		noColor     bool
	)

	fs := flag.NewFlagSet("purlcheck", flag.ExitOnError)
	fs.Var(&accept, "accept", "Accept header value (repeatable, one request each; default: browser, JSON and image)")
	fs.BoolVar(&debug, "debug", false, "Add the __debug parameter so the server answers 200 with a plain-text account")
	fs.IntVar(&expect, "expect", 0, "Exit 1 unless every response has this status")
	fs.DurationVar(&timeout, "timeout", 10*time.Second, "Request timeout")
	fs.BoolVar(&fingerprint, "fingerprint", false, "Use a browser TLS fingerprint")
	fs.BoolVar(&quiet, "q", false, "Quiet mode - only output status and target")
	fs.BoolVar(&noColor, "no-color", false, "Disable colored output")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: purlcheck [options] URL...\n\nOptions:\n")
		fs.PrintDefaults()
	}
	fs.Parse(os.Args[1:])

	if noColor {
		disableColors()
	}
	if fs.NArg() == 0 {
		fs.Usage()
		os.Exit(1)
	}
	if len(accept) == 0 {
		accept = acceptList{
			"text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
			"application/json",
			"image/*",
		}
	}

	client := transport.NewClient(timeout, fingerprint)

	failed := false
	for _, target := range fs.Args() {
		if debug {
			target = withParam(target, "__debug")
		}
		for _, a := range accept {
			status, err := check(client, target, a, quiet)
			if err != nil {
				printError("%s: %v", target, err)
				failed = true
				continue
			}
			if expect != 0 && status != expect {
				printError("expected status %d, got %d", expect, status)
				failed = true
			}
		}
	}

	if failed {
		os.Exit(1)
	}
}

// check sends one GET and reports the response.
func check(client *http.Client, target, accept string, quiet bool) (int, error) {
	req, err := http.NewRequest(http.MethodGet, target, nil)
	if err != nil {
		return 0, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", accept)

	start := time.Now()
	resp, err := client.Do(req)
	duration := time.Since(start)
	if err != nil {
		return 0, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if quiet {
		fmt.Printf("%d %s\n", resp.StatusCode, resp.Header.Get("Location"))
		return resp.StatusCode, nil
	}

	statusColor := colorGreen
	if resp.StatusCode >= 400 {
		statusColor = colorRed
	}
	fmt.Printf("\n%s▶ GET%s %s%s%s\n", colorYellow, colorReset, colorBold, target, colorReset)
	fmt.Printf("  Accept: %s\n", accept)
	fmt.Printf("%s◀ %s%d%s (%v)\n", colorCyan, statusColor, resp.StatusCode, colorReset, duration)

	if loc := resp.Header.Get("Location"); loc != "" {
		fmt.Printf("  Location: %s%s%s\n", colorCyan, loc, colorReset)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "" {
		fmt.Printf("  Content-Type: %s\n", ct)
	}
	if v := resp.Header.Get(negotiation.VariantsHeader); v != "" {
		printVariants(v)
	}

	// Plain-text bodies are short status accounts; anything else is content.
	if strings.HasPrefix(resp.Header.Get("Content-Type"), "text/plain") {
		body, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if err != nil {
			return resp.StatusCode, fmt.Errorf("reading response: %w", err)
		}
		for _, line := range strings.Split(strings.TrimSpace(string(body)), "\n") {
			fmt.Printf("  %s%s%s\n", colorGray, line, colorReset)
		}
	}

	return resp.StatusCode, nil
}

func printVariants(header string) {
	types, err := negotiation.ParseVariants(header)
	if err != nil {
		printWarning("malformed Variants header %q: %v", header, err)
		return
	}
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = t.Essence()
	}
	fmt.Printf("  Alternatives: %s\n", strings.Join(names, ", "))
}

// withParam appends a flag-style query parameter.
func withParam(target, param string) string {
	if strings.Contains(target, "?") {
		return target + "&" + param
	}
	return target + "?" + param
}

func printError(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "%s✗ %s%s\n", colorRed, fmt.Sprintf(format, args...), colorReset)
}

func printWarning(format string, args ...interface{}) {
	fmt.Printf("%s⚠ %s%s\n", colorYellow, fmt.Sprintf(format, args...), colorReset)
}
