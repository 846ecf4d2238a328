package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	brtypes "github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"

	"github.com/cloudymate/cloudymate/config"
	"github.com/cloudymate/cloudymate/models"
)

// Generator is the synchronous generation capability the gate and the RAG
// pipeline call. Implementations make exactly one backend call per Generate.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Embedder turns text into a fixed-length vector for similarity search.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// BedrockClient provides generation and embeddings over the Bedrock runtime.
// When a guardrail id is configured it is attached to every generation call.
type BedrockClient struct {
	runtime          *bedrockruntime.Client
	modelID          string
	embeddingModelID string
	guardrailID      string
	guardrailVersion string
}

// NewBedrockClient builds the runtime client from the application config.
// Static credentials take precedence; otherwise the default chain applies.
func NewBedrockClient(ctx context.Context, cfg *config.Config) (*BedrockClient, error) {
	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.AWSRegion),
	}
	if cfg.AWSAccessKeyID != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(
				cfg.AWSAccessKeyID, cfg.AWSSecretAccessKey, cfg.AWSSessionToken,
			),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, &BackendError{Op: "bedrock client initialization", Err: err}
	}

	if cfg.GuardrailID != "" {
		log.Printf("SERVICE: Bedrock guardrail enabled: %s (version %s)", cfg.GuardrailID, cfg.GuardrailVersion)
	}

	return &BedrockClient{
		runtime:          bedrockruntime.NewFromConfig(awsCfg),
		modelID:          cfg.BedrockModelID,
		embeddingModelID: cfg.EmbeddingModelID,
		guardrailID:      cfg.GuardrailID,
		guardrailVersion: cfg.GuardrailVersion,
	}, nil
}

// Generate sends one prompt through the Converse API and returns the model's
// text output. Failures are not retried.
func (b *BedrockClient) Generate(ctx context.Context, prompt string) (string, error) {
	input := &bedrockruntime.ConverseInput{
		ModelId: aws.String(b.modelID),
		Messages: []brtypes.Message{
			{
				Role: brtypes.ConversationRoleUser,
				Content: []brtypes.ContentBlock{
					&brtypes.ContentBlockMemberText{Value: prompt},
				},
			},
		},
		InferenceConfig: &brtypes.InferenceConfiguration{
			MaxTokens:   aws.Int32(2048),
			Temperature: aws.Float32(0.7),
			TopP:        aws.Float32(0.9),
		},
	}
	if b.guardrailID != "" {
		input.GuardrailConfig = &brtypes.GuardrailConfiguration{
			GuardrailIdentifier: aws.String(b.guardrailID),
			GuardrailVersion:    aws.String(b.guardrailVersion),
			Trace:               brtypes.GuardrailTraceEnabled,
		}
	}

	out, err := b.runtime.Converse(ctx, input)
	if err != nil {
		return "", &BackendError{Op: "bedrock generation", Err: err}
	}

	msg, ok := out.Output.(*brtypes.ConverseOutputMemberMessage)
	if !ok {
		return "", &BackendError{
			Op:  "bedrock generation",
			Err: fmt.Errorf("unexpected converse output type %T", out.Output),
		}
	}

	var sb strings.Builder
	for _, block := range msg.Value.Content {
		if text, ok := block.(*brtypes.ContentBlockMemberText); ok {
			sb.WriteString(text.Value)
		}
	}
	return sb.String(), nil
}

// Embed invokes the Titan embedding model for a single text.
func (b *BedrockClient) Embed(ctx context.Context, text string) ([]float32, error) {
	body, err := json.Marshal(models.TitanEmbedRequest{InputText: text})
	if err != nil {
		return nil, &BackendError{Op: "bedrock embedding", Err: err}
	}

	out, err := b.runtime.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(b.embeddingModelID),
		ContentType: aws.String("application/json"),
		Accept:      aws.String("application/json"),
		Body:        body,
	})
	if err != nil {
		return nil, &BackendError{Op: "bedrock embedding", Err: err}
	}

	var resp models.TitanEmbedResponse
	if err := json.Unmarshal(out.Body, &resp); err != nil {
		return nil, &BackendError{Op: "bedrock embedding", Err: fmt.Errorf("decode response: %w", err)}
	}
	if len(resp.Embedding) == 0 {
		return nil, &BackendError{Op: "bedrock embedding", Err: fmt.Errorf("empty embedding returned")}
	}
	return resp.Embedding, nil
}
