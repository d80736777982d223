package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"frogtank.app/internal/protocol"
)

// tankctl posts one command to a running server's loopback endpoint.

var commands = []string{
	protocol.CmdDash,
	protocol.CmdToggleFlock,
	protocol.CmdToggleDebug,
	protocol.CmdRealignCamera,
	protocol.CmdEnterFolder,
	protocol.CmdExitFolder,
}

func main() {
	if len(os.Args) < 2 || strings.HasPrefix(os.Args[1], "-") {
		usage()
		os.Exit(2)
	}
	name := os.Args[1]
	if !known(name) {
		fmt.Fprintf(os.Stderr, "unknown command %q\n", name)
		usage()
		os.Exit(2)
	}

	fs := flag.NewFlagSet("tankctl", flag.ExitOnError)
	baseURL := fs.String("url", "http://127.0.0.1:8080", "server base url")
	_ = fs.Parse(os.Args[2:])

	u := strings.TrimRight(strings.TrimSpace(*baseURL), "/") + "/v1/cmd"
	body, _ := json.Marshal(map[string]string{"name": name})
	cl := &http.Client{Timeout: 5 * time.Second}
	resp, err := cl.Post(u, "application/json", bytes.NewReader(body))
	if err != nil {
		fmt.Fprintln(os.Stderr, "request:", err)
		os.Exit(1)
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	fmt.Println(strings.TrimSpace(string(b)))
	if resp.StatusCode/100 != 2 {
		os.Exit(1)
	}
}

func known(name string) bool {
	for _, c := range commands {
		if c == name {
			return true
		}
	}
	return false
}

func usage() {
	fmt.Fprintf(os.Stderr, "usage: tankctl <command> [-url http://127.0.0.1:8080]\n")
	fmt.Fprintf(os.Stderr, "commands: %s\n", strings.Join(commands, ", "))
}
