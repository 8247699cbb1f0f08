package vertexclient

import (
	"testing"

	"cloud.google.com/go/vertexai/genai"

	"github.com/GregMSThompson/bizledger/internal/dto"
)

func TestToGenaiSchemaNested(t *testing.T) {
	in := &dto.VertexSchema{
		Type: "object",
		Properties: map[string]*dto.VertexSchema{
			"status": {Type: "string", Enum: []string{"paid", "pending"}},
			"limit":  {Type: "integer"},
			"tags":   {Type: "array", Items: &dto.VertexSchema{Type: "string"}},
		},
		Required: []string{"status"},
	}

	got := toGenaiSchema(in)
	if got.Type != genai.TypeObject {
		t.Fatalf("type = %v, want object", got.Type)
	}
	if len(got.Properties) != 3 {
		t.Fatalf("expected 3 properties, got %d", len(got.Properties))
	}
	if got.Properties["limit"].Type != genai.TypeInteger {
		t.Fatalf("limit type = %v", got.Properties["limit"].Type)
	}
	if got.Properties["tags"].Items == nil || got.Properties["tags"].Items.Type != genai.TypeString {
		t.Fatalf("array items not converted")
	}
	if len(got.Required) != 1 || got.Required[0] != "status" {
		t.Fatalf("required mismatch: %v", got.Required)
	}
}

func TestToGenaiSchemaNil(t *testing.T) {
	if toGenaiSchema(nil) != nil {
		t.Fatalf("expected nil schema")
	}
	if toGenaiTools(nil) != nil {
		t.Fatalf("expected nil tools")
	}
}

func TestToGenaiContentsSkipsEmptyTurns(t *testing.T) {
	text := "hello"
	got := toGenaiContents([]dto.VertexContent{
		{Role: "user", Parts: []dto.VertexPart{{Text: &text}}},
		{Role: "model"},
		{Role: "model", Parts: []dto.VertexPart{{FunctionCall: &dto.VertexToolCall{Name: "get_invoices"}}}},
		{Role: "user", Parts: []dto.VertexPart{{FunctionResponse: &dto.VertexToolResult{Name: "get_invoices", Response: map[string]any{"count": 1}}}}},
	})

	if len(got) != 3 {
		t.Fatalf("expected 3 contents, got %d", len(got))
	}
	if _, ok := got[1].Parts[0].(genai.FunctionCall); !ok {
		t.Fatalf("expected function call part, got %T", got[1].Parts[0])
	}
	if _, ok := got[2].Parts[0].(genai.FunctionResponse); !ok {
		t.Fatalf("expected function response part, got %T", got[2].Parts[0])
	}
}

func TestParseContentResponse(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{Content: &genai.Content{Parts: []genai.Part{
				genai.Text("Revenue is "),
				genai.Text("RM 200."),
				&genai.FunctionCall{Name: "get_business_analytics", Args: map[string]any{}},
			}}},
			{Content: nil},
		},
	}

	text, calls, malformed := parseContentResponse(resp)
	if malformed {
		t.Fatalf("unexpected malformed flag")
	}
	if text != "Revenue is RM 200." {
		t.Fatalf("text mismatch: %q", text)
	}
	if len(calls) != 1 || calls[0].Name != "get_business_analytics" {
		t.Fatalf("calls mismatch: %+v", calls)
	}
}

func TestParseContentResponseMalformedCall(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{Content: &genai.Content{Parts: []genai.Part{genai.FunctionCall{}}}},
		},
	}

	if _, _, malformed := parseContentResponse(resp); !malformed {
		t.Fatalf("expected unnamed function call to be malformed")
	}
}
