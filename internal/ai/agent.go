package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/invopop/jsonschema"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/param"
	"github.com/openai/openai-go/responses"
	"github.com/openai/openai-go/shared"
	"github.com/openai/openai-go/shared/constant"

	"supply-agent/internal/core"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "gpt-4o"

// Agent is the OpenAI-backed core.Reasoner. Answers are constrained by a strict JSON
// schema reflected from core.PlanEnvelope.
type Agent struct {
	client *openai.Client
	model  string
}

var _ core.Reasoner = (*Agent)(nil)

// NewAgent builds an Agent. A missing key is a *core.ConfigurationError so the delegate
// can start DISABLED instead of failing the process.
func NewAgent(apiKey, model string, opts ...option.RequestOption) (*Agent, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, &core.ConfigurationError{Setting: "OPENAI_API_KEY", Reason: "not set"}
	}
	if model == "" {
		model = DefaultModel
	}
	opts = append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)
	client := openai.NewClient(opts...)
	return &Agent{client: &client, model: model}, nil
}

// Model returns the configured model name.
func (a *Agent) Model() string { return a.model }

// Reason sends one structured-output request and returns the raw JSON text.
// Validation of the content is left to the caller.
func (a *Agent) Reason(ctx context.Context, instruction, payload string) (string, error) {
	schema, err := PlanSchema()
	if err != nil {
		return "", err
	}

	params := responses.ResponseNewParams{
		Model:        shared.ResponsesModel(a.model),
		Instructions: param.NewOpt(instruction),
		Input: responses.ResponseNewParamsInputUnion{
			OfString: param.NewOpt(payload),
		},
		Text: responses.ResponseTextConfigParam{
			Format: responses.ResponseFormatTextConfigUnionParam{
				OfJSONSchema: &responses.ResponseFormatTextJSONSchemaConfigParam{
					Type:        constant.JSONSchema("json_schema"),
					Name:        "acquisition_plan",
					Strict:      param.NewOpt(true),
					Schema:      schema,
					Description: param.NewOpt("Ordered purchasing action plan for the critical stock items"),
				},
			},
		},
	}

	resp, err := a.client.Responses.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("openai responses error: %w", err)
	}

	content := resp.OutputText()
	if content == "" {
		return "", fmt.Errorf("empty response content")
	}
	return content, nil
}

var (
	schemaOnce sync.Once
	schemaMap  map[string]any
	schemaErr  error
)

// PlanSchema returns the strict output schema as a generic map, reflected once.
func PlanSchema() (map[string]any, error) {
	schemaOnce.Do(func() {
		reflector := jsonschema.Reflector{
			AllowAdditionalProperties: false,
			DoNotReference:            true,
		}
		raw, err := json.Marshal(reflector.Reflect(&core.PlanEnvelope{}))
		if err != nil {
			schemaErr = fmt.Errorf("failed to marshal schema: %w", err)
			return
		}
		var m map[string]any
		if err := json.Unmarshal(raw, &m); err != nil {
			schemaErr = fmt.Errorf("failed to unmarshal schema to map: %w", err)
			return
		}
		delete(m, "$schema")
		delete(m, "$id")
		schemaMap = m
	})
	return schemaMap, schemaErr
}
