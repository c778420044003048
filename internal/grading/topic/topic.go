package topic

import (
	"regexp"
	"strings"
)

// Topic is the closed set of assignment topics known to the grading model.
type Topic string

const (
	Algebra        Topic = "Algebra"
	Geometri       Topic = "Geometri"
	Ekvationer     Topic = "Ekvationer"
	Procent        Topic = "Procent"
	Statistik      Topic = "Statistik & Sannolikhet"
	Funktioner     Topic = "Funktioner"
	Problemlosning Topic = "Problemlösning"
	Unknown        Topic = "Unknown"
)

// Context is the per-assignment classification reused for every submission.
type Context struct {
	Topic      Topic `json:"topic"`
	Difficulty int   `json:"difficulty"`
}

type weightedKeyword struct {
	keyword string
	weight  int
}

type topicKeywords struct {
	topic    Topic
	keywords []weightedKeyword
}

// topicTable is ordered; ties resolve to the earliest entry.
var topicTable = []topicKeywords{
	{Algebra, []weightedKeyword{{"algebra", 2}, {"polynom", 2}, {"ekvation", 1}, {"equation", 1}, {"uttryck", 1}, {"förenkla", 1}}},
	{Geometri, []weightedKeyword{{"geometri", 2}, {"triangel", 2}, {"cirkel", 2}, {"area", 1}, {"volym", 1}}},
	{Ekvationer, []weightedKeyword{{"ekvation", 2}, {"ekvationer", 2}, {"system of equations", 2}, {"x", 1}, {"variables", 1}}},
	{Procent, []weightedKeyword{{"procent", 2}, {"%", 2}, {"ränta", 2}, {"ökning", 1}, {"minskning", 1}, {"moms", 1}, {"rabatt", 1}, {"skatt", 1}, {"percentage", 2}}},
	{Statistik, []weightedKeyword{{"statistik", 2}, {"sannolikhet", 2}, {"medelvärde", 1}, {"varians", 1}, {"probability", 1}}},
	{Funktioner, []weightedKeyword{{"funktion", 2}, {"graf", 2}, {"linjär", 1}, {"parabel", 2}}},
	{Problemlosning, []weightedKeyword{{"problem", 1}, {"lösning", 1}, {"strategi", 1}, {"modellering", 1}}},
}

var nonTopicChars = regexp.MustCompile(`[^a-zåäö0-9% ]`)

// All returns the known topics in classification order.
func All() []Topic {
	topics := make([]Topic, 0, len(topicTable))
	for _, entry := range topicTable {
		topics = append(topics, entry.topic)
	}
	return topics
}

// Valid reports whether t is one of the known topics, Unknown included.
func (t Topic) Valid() bool {
	if t == Unknown {
		return true
	}
	for _, entry := range topicTable {
		if entry.topic == t {
			return true
		}
	}
	return false
}

// Extract derives the topic of an assignment from its description using weighted keywords.
func Extract(description string) Topic {
	if strings.TrimSpace(description) == "" {
		return Unknown
	}

	text := nonTopicChars.ReplaceAllString(strings.ToLower(description), " ")

	best := Unknown
	bestScore := 0
	for _, entry := range topicTable {
		score := 0
		for _, kw := range entry.keywords {
			if strings.Contains(text, kw.keyword) {
				score += kw.weight
			}
		}
		if score > bestScore {
			best = entry.topic
			bestScore = score
		}
	}

	return best
}

// Classify computes the topic and difficulty context for an assignment description.
func Classify(description string) Context {
	return Context{
		Topic:      Extract(description),
		Difficulty: Difficulty(description),
	}
}
