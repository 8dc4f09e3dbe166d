package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"rag-modulo/internal/adapter/searchhttp"
)

var searchCmd = &cobra.Command{
	Use:   "search <question>",
	Short: "Run a search against the service",
	Long: `Send a question to the search service and print the answer.

Examples:
  searchctl search "What is vector search?" --collection docs --user alice
  searchctl search "Compare A and B" --collection docs --user alice --cot
  searchctl search "quick lookup" --collection docs --no-rerank --json`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	rootCmd.AddCommand(searchCmd)

	searchCmd.Flags().String("collection", "", "collection identifier (required)")
	searchCmd.Flags().String("user", "", "user identifier")
	searchCmd.Flags().Int("top-k", 0, "override retrieval top-k")
	searchCmd.Flags().Bool("no-rerank", false, "disable reranking for this request")
	searchCmd.Flags().Bool("cot", false, "force chain-of-thought reasoning on")
	searchCmd.Flags().Bool("no-cot", false, "force chain-of-thought reasoning off")
	searchCmd.Flags().Bool("json", false, "output raw JSON response")
	_ = searchCmd.MarkFlagRequired("collection")
}

func runSearch(cmd *cobra.Command, args []string) error {
	collection, _ := cmd.Flags().GetString("collection")
	user, _ := cmd.Flags().GetString("user")
	topK, _ := cmd.Flags().GetInt("top-k")
	noRerank, _ := cmd.Flags().GetBool("no-rerank")
	cot, _ := cmd.Flags().GetBool("cot")
	noCot, _ := cmd.Flags().GetBool("no-cot")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	configMetadata := map[string]any{}
	if topK > 0 {
		configMetadata["top_k"] = topK
	}
	if noRerank {
		configMetadata["disable_rerank"] = true
	}
	if cot {
		configMetadata["cot_enabled"] = true
	}
	if noCot {
		configMetadata["cot_disabled"] = true
	}

	payload, err := json.Marshal(searchhttp.SearchRequest{
		Question:       args[0],
		CollectionID:   collection,
		UserID:         user,
		ConfigMetadata: configMetadata,
	})
	if err != nil {
		return fmt.Errorf("marshaling request: %w", err)
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), requestTimeout)
	defer cancel()

	url := strings.TrimRight(serverURL, "/") + "/v1/search"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("calling search service: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("search service returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if jsonOutput {
		var indented bytes.Buffer
		if err := json.Indent(&indented, body, "", "  "); err != nil {
			_, _ = os.Stdout.Write(body)
			return nil
		}
		_, _ = indented.WriteTo(os.Stdout)
		fmt.Println()
		return nil
	}

	var result searchhttp.SearchResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}

	printSearchResult(&result)
	return nil
}

func printSearchResult(result *searchhttp.SearchResponse) {
	header := color.New(color.FgCyan, color.Bold)
	dim := color.New(color.Faint)
	warn := color.New(color.FgYellow)

	header.Println("Answer")
	fmt.Println(result.Answer)
	fmt.Println()

	if result.RewrittenQuery != "" {
		dim.Printf("rewritten query: %s\n", result.RewrittenQuery)
	}
	dim.Printf("documents: %d, chunks: %d, took %dms\n",
		len(result.Documents), len(result.QueryResults), result.ExecutionTimeMs)

	if result.TokenWarning != "" {
		warn.Printf("warning: %s\n", result.TokenWarning)
	}

	if result.CoTOutput != nil && result.CoTOutput.Enabled {
		fmt.Println()
		header.Println("Reasoning steps")
		for _, step := range result.CoTOutput.Steps {
			fmt.Printf("%d. %s\n", step.Step, step.SubQuestion)
			dim.Printf("   %s\n", step.SubAnswer)
		}
	}
}
