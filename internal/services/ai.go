package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/GregMSThompson/bizledger/internal/dto"
	"github.com/GregMSThompson/bizledger/internal/errs"
	"github.com/GregMSThompson/bizledger/internal/models"
	"github.com/GregMSThompson/bizledger/pkg/helpers"
	"github.com/GregMSThompson/bizledger/pkg/logger"
)

const (
	aiHistoryLimit        = 8
	aiTransactionLimit    = 10
	aiMaxTransactionLimit = 50
	defaultAISession      = "default"
)

const (
	toolBusinessAnalytics = "get_business_analytics"
	toolTransactions      = "get_transactions"
	toolInvoices          = "get_invoices"
)

type vertexClient interface {
	GenerateContent(ctx context.Context, req dto.VertexGenerateRequest) (dto.VertexGenerateResponse, error)
}

type analyticsReader interface {
	GetBusinessAnalytics(ctx context.Context, businessToken string) (dto.AnalyticsResponse, error)
}

type transactionReader interface {
	ListTransactions(ctx context.Context, businessToken string, q dto.TransactionQuery) ([]models.Transaction, error)
}

type invoiceReader interface {
	ListInvoices(ctx context.Context, businessToken, status string) ([]models.Invoice, error)
}

type aiStore interface {
	SaveMessage(ctx context.Context, businessToken, sessionID string, msg models.AIMessage) error
	ListMessages(ctx context.Context, businessToken, sessionID string, limit int) ([]models.AIMessage, error)
}

type aiService struct {
	vertex    vertexClient
	analytics analyticsReader
	txs       transactionReader
	invoices  invoiceReader
	store     aiStore
	ttl       time.Duration
	demoToken string
	loc       *time.Location
	clockNow  func() time.Time
}

func NewAIService(vertex vertexClient, analytics analyticsReader, txs transactionReader, invoices invoiceReader, store aiStore, ttl time.Duration, demoToken string, loc *time.Location) *aiService {
	if loc == nil {
		loc = time.Local
	}
	return &aiService{
		vertex:    vertex,
		analytics: analytics,
		txs:       txs,
		invoices:  invoices,
		store:     store,
		ttl:       ttl,
		demoToken: demoToken,
		loc:       loc,
		clockNow:  time.Now,
	}
}

func (s *aiService) Query(ctx context.Context, businessToken, sessionID, message string) (dto.AIQueryResponse, error) {
	businessToken = helpers.FirstNonEmpty(businessToken, s.demoToken)
	sessionID = helpers.FirstNonEmpty(sessionID, defaultAISession)
	log := logger.FromContext(ctx).With("session_id", sessionID)

	if message == "" {
		return dto.AIQueryResponse{}, errs.NewValidationError("message is required")
	}

	stored, err := s.store.ListMessages(ctx, businessToken, sessionID, aiHistoryLimit)
	if err != nil {
		return dto.AIQueryResponse{}, err
	}
	history := convertMessagesToContents(s.liveMessages(stored))

	now := s.clockNow().In(s.loc)
	req := dto.VertexGenerateRequest{
		System:      systemPrompt(now),
		History:     history,
		UserMessage: message,
		Tools:       toolSchemas(),
	}

	resp, err := s.vertex.GenerateContent(ctx, req)
	if err != nil {
		var malformed *errs.MalformedFunctionCallError
		if errors.As(err, &malformed) {
			log.Warn("malformed function call, retrying with strict prompt")
			strictReq := req
			strictReq.System = strictSystemPrompt(now)
			resp, err = s.vertex.GenerateContent(ctx, strictReq)
		}
	}
	if err != nil {
		return dto.AIQueryResponse{}, err
	}

	if len(resp.ToolCalls) == 0 {
		if err := s.saveMessage(ctx, businessToken, sessionID, models.AIMessage{
			Role:    "user",
			Content: message,
		}); err != nil {
			return dto.AIQueryResponse{}, err
		}
		if resp.Text != "" {
			if err := s.saveMessage(ctx, businessToken, sessionID, models.AIMessage{
				Role:    "assistant",
				Content: resp.Text,
			}); err != nil {
				return dto.AIQueryResponse{}, err
			}
		}
		log.Info("ai query completed")
		return dto.AIQueryResponse{Answer: resp.Text}, nil
	}

	if len(resp.ToolCalls) > 1 {
		log.Warn("received multiple tool calls, only processing the first", "count", len(resp.ToolCalls))
	}
	toolCall := resp.ToolCalls[0]
	if !isValidToolName(toolCall.Name) {
		return dto.AIQueryResponse{}, errs.NewValidationError(fmt.Sprintf("model requested unknown tool: %s", toolCall.Name))
	}

	log.Info("executing tool", "tool", toolCall.Name)
	toolResult, err := s.executeTool(ctx, businessToken, toolCall)
	if err != nil {
		return dto.AIQueryResponse{}, fmt.Errorf("failed to execute tool %s: %w", toolCall.Name, err)
	}

	if err := s.saveMessage(ctx, businessToken, sessionID, models.AIMessage{
		Role:    "user",
		Content: message,
	}); err != nil {
		return dto.AIQueryResponse{}, err
	}
	if err := s.saveMessage(ctx, businessToken, sessionID, models.AIMessage{
		Role:       "tool",
		ToolName:   toolCall.Name,
		ToolArgs:   toolCall.Args,
		ToolResult: toolResult.Response,
	}); err != nil {
		return dto.AIQueryResponse{}, err
	}

	// No tools on the follow-up turn, so the model has to answer in text.
	finalResp, err := s.vertex.GenerateContent(ctx, dto.VertexGenerateRequest{
		System:      systemPrompt(now),
		History:     history,
		UserMessage: message,
		ToolCall:    &toolCall,
		ToolResult:  &toolResult,
	})
	if err != nil {
		return dto.AIQueryResponse{}, err
	}

	if err := s.saveMessage(ctx, businessToken, sessionID, models.AIMessage{
		Role:    "assistant",
		Content: finalResp.Text,
	}); err != nil {
		return dto.AIQueryResponse{}, err
	}

	log.Info("ai query completed", "tool", toolCall.Name)
	return dto.AIQueryResponse{
		Answer: finalResp.Text,
		Debug: &dto.AIDebugInfo{
			Tool: toolCall.Name,
			Args: toolCall.Args,
		},
	}, nil
}

// liveMessages drops turns whose TTL has lapsed. Firestore expires them on its
// own schedule; the other backends never do.
func (s *aiService) liveMessages(msgs []models.AIMessage) []models.AIMessage {
	now := s.clockNow()
	out := make([]models.AIMessage, 0, len(msgs))
	for _, msg := range msgs {
		if !msg.ExpiresAt.IsZero() && !msg.ExpiresAt.After(now) {
			continue
		}
		out = append(out, msg)
	}
	return out
}

func convertMessagesToContents(history []models.AIMessage) []dto.VertexContent {
	contents := make([]dto.VertexContent, 0, len(history))

	for _, msg := range history {
		switch msg.Role {
		case "user":
			contents = append(contents, dto.VertexContent{
				Role:  "user",
				Parts: []dto.VertexPart{{Text: helpers.Ptr(msg.Content)}},
			})

		case "assistant":
			if msg.Content != "" {
				contents = append(contents, dto.VertexContent{
					Role:  "model",
					Parts: []dto.VertexPart{{Text: helpers.Ptr(msg.Content)}},
				})
			}

		case "tool":
			if msg.ToolName == "" {
				continue
			}
			contents = append(contents, dto.VertexContent{
				Role: "model",
				Parts: []dto.VertexPart{{FunctionCall: &dto.VertexToolCall{
					Name: msg.ToolName,
					Args: msg.ToolArgs,
				}}},
			})
			if msg.ToolResult != nil {
				contents = append(contents, dto.VertexContent{
					Role: "user",
					Parts: []dto.VertexPart{{FunctionResponse: &dto.VertexToolResult{
						Name:     msg.ToolName,
						Response: msg.ToolResult,
					}}},
				})
			}
		}
	}

	return contents
}

func (s *aiService) saveMessage(ctx context.Context, businessToken, sessionID string, msg models.AIMessage) error {
	now := s.clockNow()
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = now
	}
	if s.ttl > 0 {
		msg.ExpiresAt = now.Add(s.ttl)
	}
	return s.store.SaveMessage(ctx, businessToken, sessionID, msg)
}

type transactionToolArgs struct {
	Status        string `json:"status"`
	Type          string `json:"type"`
	PaymentMethod string `json:"paymentMethod"`
	Limit         int    `json:"limit"`
}

type invoiceToolArgs struct {
	Status string `json:"status"`
}

func (s *aiService) executeTool(ctx context.Context, businessToken string, call dto.VertexToolCall) (dto.VertexToolResult, error) {
	var result any
	switch call.Name {
	case toolBusinessAnalytics:
		resp, err := s.analytics.GetBusinessAnalytics(ctx, businessToken)
		if err != nil {
			return dto.VertexToolResult{}, err
		}
		result = resp.Analytics

	case toolTransactions:
		args, err := decodeArgs[transactionToolArgs](call.Args)
		if err != nil {
			return dto.VertexToolResult{}, errs.NewValidationError("invalid get_transactions arguments")
		}
		txs, err := s.txs.ListTransactions(ctx, businessToken, dto.TransactionQuery{
			Status:        args.Status,
			Type:          args.Type,
			PaymentMethod: args.PaymentMethod,
			Limit:         helpers.ClampLimit(args.Limit, aiTransactionLimit, aiMaxTransactionLimit),
		})
		if err != nil {
			return dto.VertexToolResult{}, err
		}
		result = map[string]any{"transactions": txs, "count": len(txs)}

	case toolInvoices:
		args, err := decodeArgs[invoiceToolArgs](call.Args)
		if err != nil {
			return dto.VertexToolResult{}, errs.NewValidationError("invalid get_invoices arguments")
		}
		invoices, err := s.invoices.ListInvoices(ctx, businessToken, args.Status)
		if err != nil {
			return dto.VertexToolResult{}, err
		}
		result = map[string]any{"invoices": invoices, "count": len(invoices)}

	default:
		return dto.VertexToolResult{}, errs.NewValidationError(fmt.Sprintf("unsupported tool: %s", call.Name))
	}

	payload, err := toMap(result)
	if err != nil {
		return dto.VertexToolResult{}, err
	}
	return dto.VertexToolResult{Name: call.Name, Response: payload}, nil
}

func toolSchemas() []dto.VertexTool {
	return []dto.VertexTool{
		{
			Name: toolBusinessAnalytics,
			Description: "Return the business analytics summary: revenue, expenses, balance, pending and failed amounts, " +
				"payment method breakdown, last 7 days of revenue, invoice counts, success and failure rates, and 30-day growth.",
			Parameters: &dto.VertexSchema{
				Type:       "object",
				Properties: map[string]*dto.VertexSchema{},
			},
		},
		{
			Name:        toolTransactions,
			Description: "Return the business's most recent transactions, newest first, with optional filters.",
			Parameters: &dto.VertexSchema{
				Type: "object",
				Properties: map[string]*dto.VertexSchema{
					"status": {Type: "string", Enum: []string{
						models.TransactionStatusCompleted,
						models.TransactionStatusPending,
						models.TransactionStatusFailed,
					}, Description: "Filter by transaction status."},
					"type": {Type: "string", Enum: []string{
						models.TransactionTypePayment,
						models.TransactionTypeRefund,
						models.TransactionTypeFee,
					}, Description: "Filter by transaction type."},
					"paymentMethod": {Type: "string", Description: "Filter by payment method label, e.g. DUITNOW or FPX."},
					"limit":         {Type: "integer", Description: "Maximum number of results; defaults to 10."},
				},
			},
		},
		{
			Name:        toolInvoices,
			Description: "Return the business's invoices, most recently created first.",
			Parameters: &dto.VertexSchema{
				Type: "object",
				Properties: map[string]*dto.VertexSchema{
					"status": {Type: "string", Enum: []string{
						models.InvoiceStatusPaid,
						models.InvoiceStatusPending,
					}, Description: "Filter by invoice status."},
				},
			},
		},
	}
}

func systemPrompt(now time.Time) string {
	today := now.Format("2006-01-02")
	weekday := now.Weekday().String()
	return "You are a business assistant for a small merchant. Use tools for any question about revenue, " +
		"transactions, payment methods, or invoices. Make only one tool call per request. " +
		"All figures must come from tool results - never fabricate them. Amounts are in Malaysian Ringgit (RM). " +
		"If a question is ambiguous, ask for clarification. " +
		"Today is " + today + " (" + weekday + ", " + now.Location().String() + ")."
}

func strictSystemPrompt(now time.Time) string {
	return systemPrompt(now) + " You must respond with a valid tool call that matches the schema. " +
		"If required information is missing, ask a clarification question instead of calling a tool."
}

func decodeArgs[T any](args map[string]any) (T, error) {
	var out T
	if len(args) == 0 {
		return out, nil
	}
	raw, err := json.Marshal(args)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, err
	}
	return out, nil
}

func toMap(value any) (map[string]any, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func isValidToolName(name string) bool {
	switch name {
	case toolBusinessAnalytics, toolTransactions, toolInvoices:
		return true
	}
	return false
}
