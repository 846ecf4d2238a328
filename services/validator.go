package services

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/cloudymate/cloudymate/models"
)

const (
	// Documents shorter than this cannot be classified meaningfully.
	minValidationLength = 100

	// How much text the keyword heuristic looks at, and how much of it the
	// LLM escalation receives.
	validationSampleLength = 3000
	escalationSampleLength = 2000

	// Keyword occurrence count at or above which a document is admitted
	// without consulting the LLM. Zero occurrences rejects outright; the
	// band in between escalates.
	acceptThreshold = 5
)

// awsKeywords are the service and product terms whose occurrence count
// drives the cheap admission heuristic.
var awsKeywords = []string{
	"aws", "amazon web services", "ec2", "s3", "lambda", "cloudformation",
	"cloudfront", "rds", "dynamodb", "ecs", "eks", "fargate", "elasticache",
	"route53", "vpc", "iam", "cloudwatch", "sns", "sqs", "kinesis",
	"redshift", "aurora", "bedrock", "sagemaker", "elastic beanstalk",
}

const awsValidationPrompt = `You are a content classifier. Your task is to determine if a document is related to Amazon Web Services (AWS).

Analyze the following text excerpt and determine if it discusses AWS topics such as:
- AWS services (EC2, S3, Lambda, RDS, CloudFront, etc.)
- Cloud computing concepts in AWS context
- AWS architecture, best practices, or configurations
- AWS pricing, billing, or cost management
- AWS security, IAM, or compliance
- AWS development tools, SDKs, or APIs
- AWS certifications or training materials
- Any other AWS-related technical content

TEXT EXCERPT:
%s

INSTRUCTIONS:
1. Respond with ONLY "YES" if the document is clearly about AWS topics
2. Respond with ONLY "NO" if the document is not about AWS
3. Be strict - the document should have substantial AWS-related content

Your response (YES or NO):`

// rejectionNotice prefixes every domain-based rejection so the user sees why
// the upload was refused, with the classifier's reason appended.
const rejectionNotice = "This document does not appear to be AWS-related. " +
	"CloudyMate only accepts AWS documentation and technical content."

// ContentValidator decides whether a document belongs to the AWS domain.
// A keyword heuristic settles the clear cases; the ambiguous band escalates
// to one generation call, with no retries.
type ContentValidator struct {
	generator  Generator
	failClosed bool
}

// NewContentValidator creates a validator. When failClosed is true a failing
// escalation call rejects the document; the default policy is to admit it so
// an LLM outage never blocks uploads.
func NewContentValidator(generator Generator, failClosed bool) *ContentValidator {
	return &ContentValidator{
		generator:  generator,
		failClosed: failClosed,
	}
}

// Validate classifies the text and returns a verdict with the reason for it.
func (v *ContentValidator) Validate(ctx context.Context, text string) models.ValidationVerdict {
	if len([]rune(strings.TrimSpace(text))) < minValidationLength {
		return models.ValidationVerdict{
			Accepted: false,
			Reason:   "Document is too short or empty to validate.",
		}
	}

	sample := buildSample(text)
	matches := countKeywords(sample)
	log.Printf("GATE: keyword occurrences in sample: %d", matches)

	switch {
	case matches == 0:
		return reject("Document does not contain any AWS-related keywords or terminology.")
	case matches >= acceptThreshold:
		return models.ValidationVerdict{
			Accepted: true,
			Reason:   fmt.Sprintf("Document contains substantial AWS content (%d AWS-related terms found).", matches),
		}
	}

	// Ambiguous band: one LLM round-trip, strict YES/NO.
	excerpt := sample
	if r := []rune(excerpt); len(r) > escalationSampleLength {
		excerpt = string(r[:escalationSampleLength])
	}
	answer, err := v.generator.Generate(ctx, fmt.Sprintf(awsValidationPrompt, excerpt))
	if err != nil {
		log.Printf("GATE: validation backend failed: %v", err)
		if v.failClosed {
			return reject(fmt.Sprintf("Validation check failed and strict mode is enabled: %v", err))
		}
		return models.ValidationVerdict{
			Accepted: true,
			Reason:   fmt.Sprintf("Validation check failed, document allowed by default: %v", err),
		}
	}

	if strings.Contains(strings.ToUpper(answer), "YES") {
		return models.ValidationVerdict{
			Accepted: true,
			Reason:   "LLM analysis confirms document is AWS-related.",
		}
	}
	return reject("LLM analysis determined document is not sufficiently AWS-focused.")
}

// reject builds a rejection verdict carrying the user-facing notice plus the
// classifier's reason.
func reject(reason string) models.ValidationVerdict {
	return models.ValidationVerdict{
		Accepted: false,
		Reason:   fmt.Sprintf("%s Reason: %s", rejectionNotice, reason),
	}
}

// buildSample keeps classification cost bounded on large documents by
// sampling the beginning and a window centered at the midpoint.
func buildSample(text string) string {
	runes := []rune(text)
	if len(runes) <= validationSampleLength {
		return text
	}

	half := validationSampleLength / 2
	beginning := string(runes[:half])
	middleStart := len(runes)/2 - half/2
	middle := string(runes[middleStart : middleStart+half])
	return beginning + "\n...\n" + middle
}

func countKeywords(sample string) int {
	lower := strings.ToLower(sample)
	total := 0
	for _, kw := range awsKeywords {
		total += strings.Count(lower, kw)
	}
	return total
}
