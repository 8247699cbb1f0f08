package vertexclient

import (
	"context"
	"fmt"
	"log/slog"

	"cloud.google.com/go/vertexai/genai"

	"github.com/GregMSThompson/bizledger/internal/dto"
	"github.com/GregMSThompson/bizledger/internal/errs"
)

type Adapter struct {
	client *genai.Client
	model  string
	log    *slog.Logger
}

func NewAdapter(ctx context.Context, log *slog.Logger, projectID, region, model string) (*Adapter, error) {
	client, err := genai.NewClient(ctx, projectID, region)
	if err != nil {
		return nil, errs.NewExternalServiceError("vertex", "failed to create client", false, err)
	}

	return &Adapter{
		client: client,
		model:  model,
		log:    log,
	}, nil
}

func (a *Adapter) Close() error {
	err := a.client.Close()
	if err != nil && a.log != nil {
		a.log.Error("vertex adapter close failed", "error", err)
	}
	return err
}

// GenerateContent runs one chat turn. History is replayed into the session
// first. When ToolResult is set, the user message and the model's tool call are
// appended to the history and the tool result is sent as the new turn.
func (a *Adapter) GenerateContent(ctx context.Context, req dto.VertexGenerateRequest) (dto.VertexGenerateResponse, error) {
	out := dto.VertexGenerateResponse{}

	modelName := req.Model
	if modelName == "" {
		modelName = a.model
	}
	if modelName == "" {
		return out, fmt.Errorf("vertex model is required")
	}

	model := a.client.GenerativeModel(modelName)
	if req.System != "" {
		model.SystemInstruction = &genai.Content{
			Parts: []genai.Part{genai.Text(req.System)},
		}
	}
	if req.Temperature != nil {
		model.SetTemperature(*req.Temperature)
	}
	if req.MaxOutputTokens != nil {
		model.SetMaxOutputTokens(*req.MaxOutputTokens)
	}
	if len(req.Tools) > 0 {
		model.Tools = toGenaiTools(req.Tools)
	}

	cs := model.StartChat()
	cs.History = toGenaiContents(req.History)

	var parts []genai.Part
	switch {
	case req.ToolResult != nil:
		if req.UserMessage != "" {
			cs.History = append(cs.History, &genai.Content{
				Role:  "user",
				Parts: []genai.Part{genai.Text(req.UserMessage)},
			})
		}
		if req.ToolCall != nil {
			cs.History = append(cs.History, &genai.Content{
				Role:  "model",
				Parts: []genai.Part{genai.FunctionCall{Name: req.ToolCall.Name, Args: req.ToolCall.Args}},
			})
		}
		parts = append(parts, genai.FunctionResponse{
			Name:     req.ToolResult.Name,
			Response: req.ToolResult.Response,
		})
	case req.UserMessage != "":
		parts = append(parts, genai.Text(req.UserMessage))
	default:
		return out, fmt.Errorf("vertex generate request has no content")
	}

	resp, err := cs.SendMessage(ctx, parts...)
	if err != nil {
		return out, errs.NewExternalServiceError("vertex", "generate content failed", true, err)
	}

	text, calls, malformed := parseContentResponse(resp)
	if malformed {
		return out, errs.NewMalformedFunctionCallError()
	}
	out.Text, out.ToolCalls = text, calls
	return out, nil
}

// parseContentResponse flags a function call without a name as malformed.
func parseContentResponse(resp *genai.GenerateContentResponse) (string, []dto.VertexToolCall, bool) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", nil, false
	}

	var text string
	var calls []dto.VertexToolCall
	for _, candidate := range resp.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			var call *genai.FunctionCall
			switch p := part.(type) {
			case genai.Text:
				text += string(p)
			case genai.FunctionCall:
				call = &p
			case *genai.FunctionCall:
				call = p
			}
			if call == nil {
				continue
			}
			if call.Name == "" {
				return "", nil, true
			}
			calls = append(calls, dto.VertexToolCall{Name: call.Name, Args: call.Args})
		}
	}

	return text, calls, false
}

func toGenaiContents(history []dto.VertexContent) []*genai.Content {
	out := make([]*genai.Content, 0, len(history))
	for _, content := range history {
		parts := make([]genai.Part, 0, len(content.Parts))
		for _, part := range content.Parts {
			switch {
			case part.Text != nil:
				parts = append(parts, genai.Text(*part.Text))
			case part.FunctionCall != nil:
				parts = append(parts, genai.FunctionCall{
					Name: part.FunctionCall.Name,
					Args: part.FunctionCall.Args,
				})
			case part.FunctionResponse != nil:
				parts = append(parts, genai.FunctionResponse{
					Name:     part.FunctionResponse.Name,
					Response: part.FunctionResponse.Response,
				})
			}
		}
		if len(parts) == 0 {
			continue
		}
		out = append(out, &genai.Content{Role: content.Role, Parts: parts})
	}
	return out
}

func toGenaiTools(tools []dto.VertexTool) []*genai.Tool {
	if len(tools) == 0 {
		return nil
	}

	decls := make([]*genai.FunctionDeclaration, 0, len(tools))
	for _, tool := range tools {
		decls = append(decls, &genai.FunctionDeclaration{
			Name:        tool.Name,
			Description: tool.Description,
			Parameters:  toGenaiSchema(tool.Parameters),
		})
	}

	return []*genai.Tool{
		{FunctionDeclarations: decls},
	}
}

func toGenaiSchema(schema *dto.VertexSchema) *genai.Schema {
	if schema == nil {
		return nil
	}

	out := &genai.Schema{
		Type:        toGenaiType(schema.Type),
		Description: schema.Description,
		Enum:        schema.Enum,
		Required:    schema.Required,
	}

	if schema.Items != nil {
		out.Items = toGenaiSchema(schema.Items)
	}
	if len(schema.Properties) > 0 {
		out.Properties = make(map[string]*genai.Schema, len(schema.Properties))
		for key, value := range schema.Properties {
			out.Properties[key] = toGenaiSchema(value)
		}
	}

	return out
}

func toGenaiType(schemaType string) genai.Type {
	switch schemaType {
	case "object":
		return genai.TypeObject
	case "array":
		return genai.TypeArray
	case "string":
		return genai.TypeString
	case "number":
		return genai.TypeNumber
	case "integer":
		return genai.TypeInteger
	case "boolean":
		return genai.TypeBoolean
	default:
		return genai.TypeUnspecified
	}
}
