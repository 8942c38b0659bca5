// Package taxonomy holds the keyword corpus for applied-AI executive
// positioning. PyTorch-centric; TensorFlow is treated as legacy and
// demoted accordingly.
package taxonomy

import "regexp"

// Priority buckets for keyword categories.
type Priority string

const (
	PriorityHigh   Priority = "high"   // should appear in most surfaced content
	PriorityMedium Priority = "medium" // nice to have
	PriorityLow    Priority = "low"    // supplementary
)

// Category is a named group of keywords sharing one priority.
type Category struct {
	Name        string
	Keywords    []string
	Priority    Priority
	Description string
}

var CoreMLAI = Category{
	Name:        "Core ML/AI Domains",
	Description: "Foundational machine learning and AI terminology",
	Priority:    PriorityMedium,
	Keywords: []string{
		"deep learning", "machine learning", "artificial intelligence",
		"neural networks", "computer vision", "natural language processing",
		"NLP", "speech recognition", "reinforcement learning",
		"self-supervised learning", "semi-supervised learning",
		"multimodal learning", "vision-language models", "VLMs",
	},
}

var FrameworksTools = Category{
	Name:        "Frameworks & Tools",
	Description: "Hands-on expertise, PyTorch ecosystem is primary",
	Priority:    PriorityHigh,
	Keywords: []string{
		"PyTorch", "JAX", "scikit-learn",
		"ONNX", "TensorRT", "OpenVINO", "TorchScript",
		"Hugging Face", "transformers", "diffusers", "accelerate",
		"LangChain", "LlamaIndex", "LangGraph", "Semantic Kernel",
		"Ray", "Dask",
	},
}

var LegacyFrameworks = Category{
	Name:        "Legacy Frameworks",
	Description: "Declining frameworks, kept for completeness at low weight",
	Priority:    PriorityLow,
	Keywords: []string{
		"TensorFlow", "Keras", "TFX", "TensorFlow Serving",
		"Spark MLlib", "Horovod",
	},
}

var LLMGenAI = Category{
	Name:        "LLM & Generative AI",
	Description: "Trending, high-visibility LLM and generative AI topics",
	Priority:    PriorityHigh,
	Keywords: []string{
		"large language models", "LLMs", "foundation models", "frontier models",
		"GPT", "Claude", "Llama", "Mistral", "Gemini", "open weight models",
		"retrieval augmented generation", "RAG", "vector search", "semantic search",
		"prompt engineering", "few-shot learning", "in-context learning",
		"fine-tuning", "LoRA", "QLoRA", "PEFT", "parameter-efficient fine-tuning",
		"instruction tuning", "RLHF", "constitutional AI", "alignment",
		"diffusion models", "stable diffusion", "text-to-image",
		"generative AI", "GenAI",
		"multimodal models", "vision transformers", "ViT", "CLIP", "BLIP",
	},
}

var ProductionDeployment = Category{
	Name:        "Production & Deployment",
	Description: "AI in production at scale, business outcomes focus",
	Priority:    PriorityHigh,
	Keywords: []string{
		"model deployment", "production ML", "AI in production", "AI at scale",
		"inference optimization", "model serving", "online inference", "batch inference",
		"model compression", "quantization", "pruning", "knowledge distillation",
		"int8", "fp16", "bfloat16", "mixed precision training",
		"edge AI", "edge deployment", "on-device ML", "TinyML",
		"model monitoring", "drift detection", "model performance tracking",
		"A/B testing", "shadow deployment", "canary deployment",
		"blue-green deployment",
	},
}

var InfrastructureOps = Category{
	Name:        "Infrastructure & Operations",
	Description: "ML infrastructure with a business-outcome lens",
	Priority:    PriorityMedium,
	Keywords: []string{
		"MLOps", "LLMOps", "AI operations", "ML infrastructure", "AI infrastructure",
		"feature stores", "data pipelines", "data versioning",
		"experiment tracking", "model registry",
		"distributed training", "data parallelism", "model parallelism",
		"GPU optimization", "CUDA", "NVIDIA",
		"cloud AI", "AWS SageMaker", "Azure ML", "Google Vertex AI", "Databricks",
		"cost optimization", "compute efficiency", "FinOps for ML",
	},
}

var DataVector = Category{
	Name:        "Data & Vector Technologies",
	Description: "RAG/LLM ecosystem data technologies",
	Priority:    PriorityMedium,
	Keywords: []string{
		"vector databases", "embeddings", "semantic embeddings",
		"Pinecone", "Weaviate", "Milvus", "Chroma", "Qdrant", "FAISS",
		"data preprocessing", "data quality", "synthetic data", "data augmentation",
	},
}

var EmergingTech = Category{
	Name:        "Emerging Technologies",
	Description: "Forward-thinking positioning in emerging AI areas",
	Priority:    PriorityMedium,
	Keywords: []string{
		"agentic AI", "AI agents", "autonomous agents", "multi-agent systems",
		"AutoGen", "CrewAI", "agent frameworks", "tool-using agents",
		"vLLM", "text-generation-inference", "TGI", "inference servers",
		"mixture of experts", "MoE", "sparse models", "efficient architectures",
		"open source AI", "open models", "model transparency", "responsible AI",
		"AI governance", "model cards", "fairness", "bias mitigation",
		"explainability",
	},
}

var BusinessStrategy = Category{
	Name:        "Business & Strategy",
	Description: "Executive perspective: business value, ROI, applied outcomes",
	Priority:    PriorityHigh,
	Keywords: []string{
		"AI strategy", "AI transformation", "AI ROI", "business value of AI",
		"build vs buy", "vendor selection", "AI procurement",
		"AI team building", "talent acquisition", "upskilling",
		"AI ethics", "AI regulation", "AI compliance", "GDPR", "AI Act",
		"time to market", "product-market fit", "customer experience",
		"AI-powered product", "AI use case", "business impact",
		"revenue growth", "cost reduction", "operational efficiency",
		"digital transformation", "competitive advantage",
	},
}

// AllCategories in declaration order; the order fixes matched-keyword and
// matched-category iteration everywhere downstream.
var AllCategories = []Category{
	CoreMLAI,
	FrameworksTools,
	LegacyFrameworks,
	LLMGenAI,
	ProductionDeployment,
	InfrastructureOps,
	DataVector,
	EmergingTech,
	BusinessStrategy,
}

// Flat per-priority keyword lists, deduplicated, in category declaration
// order.
var (
	HighPriorityKeywords   []string
	MediumPriorityKeywords []string
	LowPriorityKeywords    []string
)

func init() {
	seen := make(map[string]bool)
	for _, cat := range AllCategories {
		for _, kw := range cat.Keywords {
			if seen[kw] {
				continue
			}
			seen[kw] = true
			switch cat.Priority {
			case PriorityHigh:
				HighPriorityKeywords = append(HighPriorityKeywords, kw)
			case PriorityMedium:
				MediumPriorityKeywords = append(MediumPriorityKeywords, kw)
			case PriorityLow:
				LowPriorityKeywords = append(LowPriorityKeywords, kw)
			}
		}
	}
}

// FrameworkWeights bias scoring toward the PyTorch ecosystem.
var FrameworkWeights = map[string]int{
	"PyTorch":      10,
	"JAX":          7,
	"Hugging Face": 9,
	"transformers": 8,
	"ONNX":         6,
	"TensorRT":     7,
	"LangChain":    7,
	"LlamaIndex":   7,
	"Ray":          6,
	// legacy, low weight
	"TensorFlow": 2,
	"Keras":      2,
	"TFX":        1,
	"Horovod":    1,
}

// ProductionKeywords weight signals of shipped, operating systems.
var ProductionKeywords = map[string]int{
	"production": 10, "deployment": 10, "at scale": 12,
	"infrastructure": 6, "MLOps": 7, "LLMOps": 8,
	"serving": 8, "inference": 8, "optimization": 7,
	"performance": 6, "latency": 7, "throughput": 7,
	"real-world": 9, "case study": 11, "implementation": 9,
	"model deployment": 12, "production ML": 12,
	"AI in production": 14, "AI at scale": 14,
	"model serving": 10, "inference optimization": 12,
	"distributed training": 8, "GPU optimization": 8,
}

// ResearchKeywords carry small weights; research alone is not the target.
var ResearchKeywords = map[string]int{
	"paper": 3, "research": 3, "novel": 2, "proposed": 2,
	"state-of-the-art": 4, "benchmark": 5, "experiment": 3,
	"sota": 4, "ablation": 2,
}

// BusinessKeywords weight executive-relevant outcome language.
var BusinessKeywords = map[string]int{
	"ROI": 10, "cost": 7, "efficiency": 8, "business value": 12,
	"enterprise": 9, "scalability": 9, "reliability": 8,
	"revenue": 9, "profit": 7, "competitive advantage": 10,
	"customer": 7, "product": 6, "market": 6,
	"time to market": 10, "business impact": 12,
	"cost reduction": 10, "revenue growth": 10,
	"digital transformation": 8, "AI strategy": 10,
	"use case": 8, "operational efficiency": 9,
	"AI-powered": 8, "business outcome": 11,
}

// ImplementationKeywords reward hands-on, reproducible content.
var ImplementationKeywords = map[string]int{
	"code": 6, "GitHub": 7, "open source": 7, "tutorial": 5,
	"how to": 6, "best practices": 8, "guide": 6, "framework": 7,
	"repository": 5, "library": 5, "SDK": 6, "API": 5,
}

// Executive positioning lists. Per-list weights live in the scorer.
var (
	ExecutiveScaleIndicators = []string{
		"distributed", "large-scale", "thousands of", "millions of",
		"enterprise-wide", "organization-wide", "company-wide",
		"petabyte", "terabyte", "cluster", "fleet",
	}

	ExecutiveLeadershipSignals = []string{
		"architecture", "strategy", "decision", "trade-offs", "trade-off",
		"evaluation", "assessment", "recommendation", "roadmap",
		"technical leadership", "engineering leadership",
		"CTO", "VP of Engineering", "Head of AI", "Chief AI Officer",
	}

	ExecutiveOperationalExcellence = []string{
		"monitoring", "observability", "incident", "postmortem",
		"lessons learned", "retrospective", "on-call", "SLA", "SLO",
		"uptime", "availability", "resilience",
	}

	ExecutiveTeamOrg = []string{
		"team", "process", "workflow", "collaboration", "cross-functional",
		"hiring", "onboarding", "culture", "management",
	}

	ExecutiveBusinessOutcomes = []string{
		"revenue impact", "cost savings", "customer satisfaction",
		"time to value", "operational efficiency", "market share",
		"competitive moat", "business case", "stakeholder",
		"board", "C-suite", "executive sponsor",
	}
)

// TheoryOnlyIndicators penalise purely theoretical work that never touches
// a production keyword.
var TheoryOnlyIndicators = []string{
	"theoretical", "abstract", "mathematical proof", "theorem",
	"lemma", "corollary", "purely theoretical",
}

// PlaceholderPatterns match template residue that must never reach a
// published post or comment.
var PlaceholderPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\[your\s+\w+\]`),
	regexp.MustCompile(`(?i)\[company\]`),
	regexp.MustCompile(`(?i)\[name\]`),
	regexp.MustCompile(`(?i)\[insert\s+\w+\]`),
	regexp.MustCompile(`(?i)\[fill\s+in\]`),
	regexp.MustCompile(`(?i)<your\s+\w+>`),
	regexp.MustCompile(`(?i)\[TODO\]`),
	regexp.MustCompile(`(?i)\[PLACEHOLDER\]`),
}
