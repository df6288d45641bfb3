package reddit

import (
	"context"
	"regexp"
	"sort"
	"strings"
	"time"
)

// SentimentReport aggregates lexicon-based sentiment over a subreddit's hot
// posts. Titles and self-texts are scored independently.
type SentimentReport struct {
	Counts        map[string]int     `json:"counts"`
	Percentages   map[string]float64 `json:"percentages"`
	TotalAnalyzed int                `json:"total_analyzed"`
	Samples       []SentimentSample  `json:"sample_texts"`
}

// SentimentSample is one scored text fragment
type SentimentSample struct {
	Text      string `json:"text"`
	Sentiment string `json:"sentiment"`
	PostID    string `json:"post_id"`
	Score     int    `json:"score"`
}

// WordCount is one word-cloud entry
type WordCount struct {
	Word  string `json:"word"`
	Count int    `json:"count"`
}

// SubredditAnalytics aggregates engagement metrics over a listing
type SubredditAnalytics struct {
	TotalPosts     int            `json:"total_posts"`
	AvgScore       float64        `json:"avg_score"`
	AvgComments    float64        `json:"avg_comments"`
	AvgUpvoteRatio float64        `json:"avg_upvote_ratio"`
	TopAuthors     []WordCount    `json:"top_authors"`
	SelfPosts      int            `json:"self_posts"`
	LinkPosts      int            `json:"link_posts"`
	ActivityByHour map[int]int    `json:"activity_by_hour"`
	TopDomains     []WordCount    `json:"top_domains"`
}

var wordPattern = regexp.MustCompile(`[a-zA-Z][a-zA-Z']{2,}`)

// Small positive/negative lexicons; enough to bucket casual Reddit text the
// way the dashboard's coarse positive/negative/neutral split needs.
var positiveWords = wordSet(
	"good", "great", "awesome", "amazing", "excellent", "love", "best",
	"fantastic", "wonderful", "perfect", "happy", "beautiful", "brilliant",
	"helpful", "impressive", "win", "winning", "success", "successful",
	"nice", "cool", "fun", "enjoy", "enjoyed", "recommend", "thanks",
	"thank", "glad", "excited", "favorite", "solid", "useful", "easy",
)

var negativeWords = wordSet(
	"bad", "terrible", "awful", "horrible", "hate", "worst", "broken",
	"fail", "failed", "failure", "problem", "problems", "issue", "issues",
	"bug", "bugs", "annoying", "useless", "disappointing", "disappointed",
	"sad", "angry", "wrong", "scam", "waste", "poor", "ugly", "difficult",
	"hard", "painful", "crash", "crashes", "slow", "expensive",
)

// stopwords filtered out of word clouds and trending keywords; includes
// Reddit-specific noise terms.
var stopwords = wordSet(
	"the", "and", "for", "not", "with", "you", "this", "but", "his", "her",
	"from", "they", "say", "she", "will", "one", "all", "would", "there",
	"their", "what", "out", "about", "who", "get", "which", "when", "make",
	"can", "like", "time", "just", "him", "know", "take", "people", "into",
	"year", "your", "good", "some", "could", "them", "see", "other", "than",
	"then", "now", "look", "only", "come", "its", "over", "think", "also",
	"back", "after", "use", "two", "how", "our", "work", "first", "well",
	"way", "even", "new", "want", "because", "any", "these", "give", "day",
	"most", "are", "was", "been", "has", "had", "were", "should", "may",
	"might", "must", "much", "many", "lot", "more", "less", "very", "too",
	"still", "being", "going", "why", "before", "here", "where", "does",
	"did", "thing", "things", "something", "someone", "really", "actually",
	"probably", "maybe", "seems", "that", "have",
	// Reddit specific
	"reddit", "comments", "comment", "post", "posts", "subreddit", "edit",
	"deleted", "removed", "http", "https", "com", "www", "amp", "bot",
	"moderator", "automod", "thanks", "please", "thank", "update", "tldr",
)

func wordSet(words ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

// AnalyzeSentiment scores hot posts in a subreddit. Upstream failure is an
// error; an empty subreddit yields a zeroed report.
func (s *Scout) AnalyzeSentiment(ctx context.Context, name string, limit int) (*SentimentReport, error) {
	if !s.IsConfigured() {
		return nil, ErrNotConfigured
	}

	posts, err := s.client.SubredditPosts(ctx, name, "hot", "", limit)
	if err != nil {
		return nil, err
	}

	report := &SentimentReport{
		Counts:      map[string]int{"positive": 0, "negative": 0, "neutral": 0},
		Percentages: map[string]float64{},
	}

	for _, post := range posts {
		texts := []string{post.Title}
		if post.Selftext != "" {
			texts = append(texts, post.Selftext)
		}
		for _, text := range texts {
			sentiment := classifySentiment(text)
			report.Counts[sentiment]++
			if len(report.Samples) < 20 {
				report.Samples = append(report.Samples, SentimentSample{
					Text:      truncate(text, 100),
					Sentiment: sentiment,
					PostID:    post.ID,
					Score:     post.Score,
				})
			}
		}
	}

	for _, n := range report.Counts {
		report.TotalAnalyzed += n
	}
	if report.TotalAnalyzed > 0 {
		for k, n := range report.Counts {
			report.Percentages[k] = float64(n) / float64(report.TotalAnalyzed) * 100
		}
	}
	return report, nil
}

// classifySentiment buckets text by the balance of lexicon hits. Polarity
// within one hit of neutral counts as neutral, mirroring the dashboard's
// sensitivity threshold.
func classifySentiment(text string) string {
	positive, negative := 0, 0
	for _, word := range wordPattern.FindAllString(strings.ToLower(text), -1) {
		if _, ok := positiveWords[word]; ok {
			positive++
		}
		if _, ok := negativeWords[word]; ok {
			negative++
		}
	}
	switch {
	case positive > negative+1:
		return "positive"
	case negative > positive+1:
		return "negative"
	default:
		return "neutral"
	}
}

// WordFrequencies counts stopword-filtered words across titles and
// self-texts of hot posts, returning the top N for word-cloud rendering.
func (s *Scout) WordFrequencies(ctx context.Context, name string, limit, topN int) ([]WordCount, error) {
	if !s.IsConfigured() {
		return nil, ErrNotConfigured
	}
	if topN <= 0 {
		topN = 50
	}

	posts, err := s.client.SubredditPosts(ctx, name, "hot", "", limit)
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int)
	for _, post := range posts {
		countWords(post.Title, counts)
		countWords(post.Selftext, counts)
	}

	return topCounts(counts, topN), nil
}

func countWords(text string, counts map[string]int) {
	for _, word := range wordPattern.FindAllString(strings.ToLower(text), -1) {
		if _, skip := stopwords[word]; skip {
			continue
		}
		counts[word]++
	}
}

// Analytics aggregates engagement metrics for a subreddit's hot listing
func (s *Scout) Analytics(ctx context.Context, name string, limit int) (*SubredditAnalytics, error) {
	if !s.IsConfigured() {
		return nil, ErrNotConfigured
	}

	posts, err := s.client.SubredditPosts(ctx, name, "hot", "", limit)
	if err != nil {
		return nil, err
	}

	analytics := &SubredditAnalytics{
		TotalPosts:     len(posts),
		ActivityByHour: make(map[int]int),
	}
	if len(posts) == 0 {
		return analytics, nil
	}

	var scoreSum, commentSum int
	var ratioSum float64
	authorCounts := make(map[string]int)
	domainCounts := make(map[string]int)

	for _, p := range posts {
		scoreSum += p.Score
		commentSum += p.NumComments
		ratioSum += p.UpvoteRatio
		authorCounts[p.Author]++
		if p.IsSelf {
			analytics.SelfPosts++
		} else {
			analytics.LinkPosts++
			if p.Domain != "" {
				domainCounts[p.Domain]++
			}
		}
		hour := time.Unix(int64(p.CreatedUTC), 0).UTC().Hour()
		analytics.ActivityByHour[hour]++
	}

	n := float64(len(posts))
	analytics.AvgScore = float64(scoreSum) / n
	analytics.AvgComments = float64(commentSum) / n
	analytics.AvgUpvoteRatio = ratioSum / n
	analytics.TopAuthors = topCounts(authorCounts, 10)
	analytics.TopDomains = topCounts(domainCounts, 10)
	return analytics, nil
}

func topCounts(counts map[string]int, n int) []WordCount {
	result := make([]WordCount, 0, len(counts))
	for word, count := range counts {
		result = append(result, WordCount{Word: word, Count: count})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Count != result[j].Count {
			return result[i].Count > result[j].Count
		}
		return result[i].Word < result[j].Word
	})
	if len(result) > n {
		result = result[:n]
	}
	return result
}

func truncate(text string, max int) string {
	if len(text) <= max {
		return text
	}
	return text[:max] + "..."
}
