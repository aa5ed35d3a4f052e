package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strconv"

	"gtonstaking/cmd/internal/passphrase"
	"gtonstaking/crypto"
)

const (
	defaultEndpoint = "http://localhost:8080"
	endpointEnvVar  = "STAKINGCTL_ENDPOINT"
	tokenEnvVar     = "STAKINGCTL_TOKEN"
	ownerPassEnv    = "STAKINGCTL_OWNER_PASS"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		return
	}

	switch os.Args[1] {
	case "set-apr":
		if len(os.Args) < 4 {
			fmt.Println("Error: Please provide an APR in basis points and an owner keystore file.")
			printUsage()
			return
		}
		bps, err := strconv.ParseUint(os.Args[2], 10, 64)
		if err != nil {
			fmt.Println("Error: Invalid APR basis points.")
			return
		}
		setApr(bps, os.Args[3])
	case "set-harvest-interval":
		if len(os.Args) < 4 {
			fmt.Println("Error: Please provide an interval in seconds and an owner keystore file.")
			printUsage()
			return
		}
		seconds, err := strconv.ParseUint(os.Args[2], 10, 64)
		if err != nil {
			fmt.Println("Error: Invalid harvest interval.")
			return
		}
		setHarvestInterval(seconds, os.Args[3])
	case "toggle-pause":
		if len(os.Args) < 3 {
			fmt.Println("Error: Please provide an owner keystore file.")
			printUsage()
			return
		}
		togglePause(os.Args[2])
	case "transfer-ownership":
		if len(os.Args) < 4 {
			fmt.Println("Error: Please provide the new owner's address and an owner keystore file.")
			printUsage()
			return
		}
		transferOwnership(os.Args[2], os.Args[3])
	case "pool-info":
		poolInfo()
	default:
		fmt.Printf("Unknown command: %s\n", os.Args[1])
		printUsage()
	}
}

func printUsage() {
	fmt.Println("Usage: stakingctl <command> [arguments]")
	fmt.Println("Commands:")
	fmt.Println("  set-apr <bps> <keystore>")
	fmt.Println("  set-harvest-interval <seconds> <keystore>")
	fmt.Println("  toggle-pause <keystore>")
	fmt.Println("  transfer-ownership <newOwner> <keystore>")
	fmt.Println("  pool-info")
	fmt.Println()
	fmt.Printf("Reads the RPC endpoint from %s (default %s) and the bearer\n", endpointEnvVar, defaultEndpoint)
	fmt.Printf("token from %s. Keystore passphrase is read from %s or prompted.\n", tokenEnvVar, ownerPassEnv)
}

func setApr(bps uint64, keystorePath string) {
	owner, err := loadOwnerAddress(keystorePath)
	if err != nil {
		fmt.Printf("Error loading owner keystore: %v\n", err)
		return
	}
	params := map[string]interface{}{"caller": owner, "aprBasisPoints": bps}
	result, err := callRPC("staking_setApr", params)
	if err != nil {
		fmt.Printf("Error calling staking_setApr: %v\n", err)
		return
	}
	fmt.Printf("APR updated: %s\n", result)
}

func setHarvestInterval(seconds uint64, keystorePath string) {
	owner, err := loadOwnerAddress(keystorePath)
	if err != nil {
		fmt.Printf("Error loading owner keystore: %v\n", err)
		return
	}
	params := map[string]interface{}{"caller": owner, "harvestIntervalSeconds": seconds}
	result, err := callRPC("staking_setHarvestInterval", params)
	if err != nil {
		fmt.Printf("Error calling staking_setHarvestInterval: %v\n", err)
		return
	}
	fmt.Printf("Harvest interval updated: %s\n", result)
}

func togglePause(keystorePath string) {
	owner, err := loadOwnerAddress(keystorePath)
	if err != nil {
		fmt.Printf("Error loading owner keystore: %v\n", err)
		return
	}
	params := map[string]interface{}{"address": owner}
	result, err := callRPC("staking_togglePause", params)
	if err != nil {
		fmt.Printf("Error calling staking_togglePause: %v\n", err)
		return
	}
	fmt.Printf("Pause state toggled: %s\n", result)
}

func transferOwnership(newOwner, keystorePath string) {
	owner, err := loadOwnerAddress(keystorePath)
	if err != nil {
		fmt.Printf("Error loading owner keystore: %v\n", err)
		return
	}
	params := map[string]interface{}{"caller": owner, "newOwner": newOwner}
	result, err := callRPC("staking_transferOwnership", params)
	if err != nil {
		fmt.Printf("Error calling staking_transferOwnership: %v\n", err)
		return
	}
	fmt.Printf("Ownership transferred: %s\n", result)
}

func poolInfo() {
	result, err := callRPC("staking_poolInfo", nil)
	if err != nil {
		fmt.Printf("Error calling staking_poolInfo: %v\n", err)
		return
	}
	fmt.Println(result)
}

// loadOwnerAddress decrypts the owner keystore only far enough to recover
// the bech32 address the RPC calls authenticate as; the JWT bearer token
// supplied via STAKINGCTL_TOKEN is the actual authentication credential.
func loadOwnerAddress(keystorePath string) (string, error) {
	passSource := passphrase.NewSource(ownerPassEnv)
	pass, err := passSource.Get()
	if err != nil {
		return "", err
	}
	key, err := crypto.LoadFromKeystore(keystorePath, pass)
	if err != nil {
		return "", err
	}
	return key.PubKey().Address().String(), nil
}

func callRPC(method string, params map[string]interface{}) (string, error) {
	endpoint := defaultEndpoint
	if v := os.Getenv(endpointEnvVar); v != "" {
		endpoint = v
	}

	var rawParams []interface{}
	if params != nil {
		rawParams = []interface{}{params}
	}
	payload, err := json.Marshal(map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  method,
		"params":  rawParams,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequest(http.MethodPost, endpoint, bytes.NewBuffer(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if token := os.Getenv(tokenEnvVar); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to connect to %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	var rpcResp struct {
		Result interface{} `json:"result"`
		Error  *struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&rpcResp); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if rpcResp.Error != nil {
		return "", fmt.Errorf("rpc error: %s", rpcResp.Error.Message)
	}
	encoded, err := json.Marshal(rpcResp.Result)
	if err != nil {
		return "", err
	}
	return string(encoded), nil
}
