package main

// Render the scoring prompt for a rubric version, optionally sending it to
// the configured model:
//   go run ./cmd/prompttest -cv cv.txt -role "Backend Engineer" -company "Fintech"
//   go run ./cmd/prompttest -cv cv.txt -role ... -company ... -score

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"cvscreen-backend/internal/llm"
	openai "cvscreen-backend/internal/llm/openai"
	"cvscreen-backend/internal/rubric"
	"cvscreen-backend/internal/shared/config"
)

func main() {
	cfg := config.Load()

	cvPath := flag.String("cv", "", "Path to a plain-text CV file")
	roleInfo := flag.String("role", "", "Role the candidate is evaluated for")
	companyInfo := flag.String("company", "", "Company context")
	jdPath := flag.String("jd", "", "Path to a job description file (optional)")
	version := flag.String("version", cfg.RubricVersion, "Rubric version")
	model := flag.String("model", cfg.LLMModel, "LLM model")
	score := flag.Bool("score", false, "Send the prompt to the model and print the raw analysis")
	flag.Parse()

	if strings.TrimSpace(*cvPath) == "" {
		exitErr("cv path is required")
	}
	if strings.TrimSpace(*roleInfo) == "" || strings.TrimSpace(*companyInfo) == "" {
		exitErr("role and company are required")
	}

	r, ok := rubric.Get(*version)
	if !ok {
		exitErr(fmt.Sprintf("unknown rubric version: %s (have %s)", *version, strings.Join(rubric.Versions(), ", ")))
	}

	cvBytes, err := os.ReadFile(*cvPath)
	if err != nil {
		exitErr(fmt.Sprintf("read cv: %v", err))
	}

	jobDescription := ""
	if strings.TrimSpace(*jdPath) != "" {
		jdBytes, err := os.ReadFile(*jdPath)
		if err != nil {
			exitErr(fmt.Sprintf("read job description: %v", err))
		}
		jobDescription = string(jdBytes)
	}

	prompt := rubric.BuildPrompt(r, string(cvBytes), *roleInfo, *companyInfo, jobDescription)

	if !*score {
		fmt.Println(prompt)
		return
	}

	client, err := openai.NewClient(os.Getenv("OPENAI_API_KEY"), openai.DefaultProfile(*model), cfg.OpenAITimeout)
	if err != nil {
		exitErr(err.Error())
	}

	raw, err := client.ScoreCV(context.Background(), llm.ScoreInput{
		Prompt:        prompt,
		RubricVersion: r.Version,
	})
	if err != nil {
		exitErr(fmt.Sprintf("score cv: %v", err))
	}

	var analysis rubric.ParsedAnalysis
	if err := json.Unmarshal(raw, &analysis); err != nil {
		exitErr(fmt.Sprintf("invalid analysis json: %v\n%s", err, raw))
	}
	total, err := rubric.Aggregate(analysis, r)
	if err != nil {
		exitErr(fmt.Sprintf("aggregate: %v", err))
	}

	pretty, err := prettyJSON(raw)
	if err != nil {
		exitErr(fmt.Sprintf("format json: %v", err))
	}
	os.Stdout.Write(pretty)
	fmt.Printf("\nscore: %d/%d band: %s\n", total, r.MaxScore, r.Band(total))
}

func prettyJSON(raw []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func exitErr(msg string) {
	fmt.Fprintln(os.Stderr, msg)
	os.Exit(1)
}
