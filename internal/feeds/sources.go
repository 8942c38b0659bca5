// Package feeds ingests articles from RSS/Atom feeds and JSON APIs,
// normalises them into feed items, and hands them to the relevance scorer.
package feeds

import "openlinkedin/internal/core"

// userAgent identifies the aggregator to feed servers. Several feeds refuse
// the default Go client string.
const userAgent = "Mozilla/5.0 (compatible; OpenLinkedIn/1.0; +https://github.com/openlinkedin)"

// DefaultSources is the built-in source registry, ordered by quality tier:
// production AI and MLOps first, then engineering research, Chinese model
// labs, infrastructure vendors, and community feeds last.
func DefaultSources() []core.FeedSource {
	return []core.FeedSource{
		// Tier 1: production AI & MLOps
		{Name: "Hugging Face Daily Papers", URL: "https://huggingface.co/api/daily_papers", Kind: core.SourceKindDailyPapers, Priority: 1, Category: "Production AI & MLOps", Enabled: true},
		{Name: "Hugging Face Blog", URL: "https://huggingface.co/blog/feed.xml", Kind: core.SourceKindRSS, Priority: 1, Category: "Production AI & MLOps", Enabled: true},
		{Name: "MLOps Community Blog", URL: "https://mlops.community/feed/", Kind: core.SourceKindRSS, Priority: 1, Category: "Production AI & MLOps", Enabled: true},
		{Name: "The New Stack (AI Section)", URL: "https://thenewstack.io/category/ai/feed/", Kind: core.SourceKindRSS, Priority: 1, Category: "Production AI & MLOps", Enabled: true},
		{Name: "Neptune.ai Blog", URL: "https://neptune.ai/blog/feed", Kind: core.SourceKindRSS, Priority: 1, Category: "Production AI & MLOps", Enabled: true},
		{Name: "Weights & Biases Blog", URL: "https://wandb.ai/fully-connected/rss.xml", Kind: core.SourceKindRSS, Priority: 1, Category: "Production AI & MLOps", Enabled: true},
		{Name: "PyTorch Blog", URL: "https://pytorch.org/blog/feed.xml", Kind: core.SourceKindRSS, Priority: 1, Category: "Production AI & MLOps", Enabled: true},
		{Name: "NVIDIA Technical Blog (AI)", URL: "https://developer.nvidia.com/blog/feed/", Kind: core.SourceKindRSS, Priority: 1, Category: "Production AI & MLOps", Enabled: true},

		// Tier 2: engineering-focused research
		{Name: "Google AI Blog", URL: "https://blog.google/technology/ai/rss/", Kind: core.SourceKindRSS, Priority: 2, Category: "Engineering Research", Enabled: true},
		{Name: "Meta AI Research", URL: "https://engineering.fb.com/category/ai-research/feed/", Kind: core.SourceKindRSS, Priority: 2, Category: "Engineering Research", Enabled: true},
		{Name: "OpenAI Blog", URL: "https://openai.com/news/rss.xml", Kind: core.SourceKindRSS, Priority: 2, Category: "Engineering Research", Enabled: true},

		// Tier 2: Chinese model labs and coverage
		{Name: "Tencent Hunyuan (GitHub)", URL: "https://github.com/Tencent-Hunyuan.atom", Kind: core.SourceKindAtom, Priority: 2, Category: "Chinese AI Models", Enabled: true},
		{Name: "Qwen Blog", URL: "https://qwenlm.github.io/blog/index.xml", Kind: core.SourceKindRSS, Priority: 2, Category: "Chinese AI Models", Enabled: true},
		{Name: "Baidu ERNIE (GitHub)", URL: "https://github.com/PaddlePaddle/ERNIE/releases.atom", Kind: core.SourceKindAtom, Priority: 2, Category: "Chinese AI Models", Enabled: true},
		{Name: "DeepSeek (GitHub)", URL: "https://github.com/deepseek-ai.atom", Kind: core.SourceKindAtom, Priority: 2, Category: "Chinese AI Models", Enabled: true},
		{Name: "Huawei", URL: "https://www.huawei.com/en/rss-feeds/huawei-updates/rss", Kind: core.SourceKindRSS, Priority: 2, Category: "Chinese AI Models", Enabled: true},
		{Name: "SenseTime OpenMMLab (GitHub)", URL: "https://github.com/open-mmlab.atom", Kind: core.SourceKindAtom, Priority: 2, Category: "Chinese AI Models", Enabled: true},
		{Name: "iFLYTEK (Google News)", URL: "https://news.google.com/rss/search?q=iFLYTEK+AI&hl=en-US&gl=US&ceid=US:en", Kind: core.SourceKindRSS, Priority: 2, Category: "Chinese AI Models", Enabled: true},
		{Name: "Chinese AI (TechNode)", URL: "https://technode.com/feed/", Kind: core.SourceKindRSS, Priority: 2, Category: "Chinese AI Models", Enabled: true},
		{Name: "Chinese AI (PandaDaily)", URL: "https://pandaily.com/feed/", Kind: core.SourceKindRSS, Priority: 2, Category: "Chinese AI Models", Enabled: true},

		// Tier 3: infrastructure & deployment
		{Name: "Ray Blog", URL: "https://www.anyscale.com/rss.xml", Kind: core.SourceKindRSS, Priority: 3, Category: "Infrastructure & Deployment", Enabled: true},
		{Name: "AWS Machine Learning Blog", URL: "https://aws.amazon.com/blogs/machine-learning/feed/", Kind: core.SourceKindRSS, Priority: 3, Category: "Infrastructure & Deployment", Enabled: true},
		{Name: "Google Cloud AI Blog", URL: "https://cloudblog.withgoogle.com/products/ai-machine-learning/rss/", Kind: core.SourceKindRSS, Priority: 3, Category: "Infrastructure & Deployment", Enabled: true},
		{Name: "Azure AI Blog", URL: "https://azure.microsoft.com/en-us/blog/tag/ai/feed/", Kind: core.SourceKindRSS, Priority: 3, Category: "Infrastructure & Deployment", Enabled: true},

		// Tier 4: community & discussion
		{Name: "Reddit r/MachineLearning", URL: "https://www.reddit.com/r/MachineLearning/.rss", Kind: core.SourceKindAtom, Priority: 4, Category: "Community & Discussion", Enabled: true},
		{Name: "Hacker News (AI/ML)", URL: "https://hnrss.org/newest?q=machine+learning+OR+AI+OR+LLM", Kind: core.SourceKindRSS, Priority: 4, Category: "Community & Discussion", Enabled: true},
		{Name: "LangChain Blog", URL: "https://blog.langchain.dev/rss/", Kind: core.SourceKindRSS, Priority: 4, Category: "Community & Discussion", Enabled: true},
		{Name: "LlamaIndex Blog", URL: "https://medium.com/feed/llamaindex-blog", Kind: core.SourceKindRSS, Priority: 4, Category: "Community & Discussion", Enabled: true},
		{Name: "TensorFlow Blog", URL: "https://blog.tensorflow.org/feeds/posts/default", Kind: core.SourceKindAtom, Priority: 4, Category: "Legacy Frameworks", Enabled: true},
	}
}

// SourceStats summarises a source registry.
type SourceStats struct {
	Total       int            `json:"total_feeds"`
	Enabled     int            `json:"enabled_feeds"`
	ByPriority  map[string]int `json:"by_priority"`
	ByCategory  map[string]int `json:"by_category"`
	Cached      int            `json:"cached_feeds"`
	CacheHits   int64          `json:"cache_hits"`
	CacheMisses int64          `json:"cache_misses"`
}

func statsFor(sources []core.FeedSource, cached int, hits, misses int64) SourceStats {
	stats := SourceStats{
		Total:       len(sources),
		ByPriority:  map[string]int{},
		ByCategory:  map[string]int{},
		Cached:      cached,
		CacheHits:   hits,
		CacheMisses: misses,
	}
	for _, src := range sources {
		if src.Enabled {
			stats.Enabled++
		}
		stats.ByPriority[priorityKey(src.Priority)]++
		stats.ByCategory[src.Category]++
	}
	return stats
}

func priorityKey(p int) string {
	switch p {
	case 1:
		return "priority_1"
	case 2:
		return "priority_2"
	case 3:
		return "priority_3"
	case 4:
		return "priority_4"
	default:
		return "priority_other"
	}
}
