package rerank

import (
	"math"
	"sort"
)

// Training hyperparameters. Small rounds and shallow trees keep training
// instant at the label volumes a single user produces.
const (
	boostRounds  = 200
	maxTreeDepth = 4
	learningRate = 0.1
	l2Lambda     = 1.0
	minSplitGain = 1e-7
)

// Model is a gradient-boosted tree ensemble with logistic loss. Categorical
// features are label-encoded with the maps captured at training time;
// values unseen in training encode to -1. The struct is gob-serialised as-is.
type Model struct {
	BaseScore    float64 // initial log-odds
	Trees        []tree
	ContentTypes map[string]float64
	Sources      map[string]float64
	FeatureNames []string
	Importance   map[string]float64
}

type tree struct {
	Nodes []treeNode
}

// treeNode is one split or leaf. Left/Right index into the tree's node
// slice; Leaf nodes carry the additive value.
type treeNode struct {
	Feature   int
	Threshold float64
	Left      int
	Right     int
	Leaf      bool
	Value     float64
}

// encode turns a sample into the model's dense feature vector.
func (m *Model) encode(s sample) []float64 {
	row := make([]float64, numNumericFeatures+2)
	copy(row, s.numeric[:])
	row[numNumericFeatures] = encodeLabel(m.ContentTypes, s.contentType)
	row[numNumericFeatures+1] = encodeLabel(m.Sources, s.source)
	return row
}

func encodeLabel(codes map[string]float64, value string) float64 {
	if code, ok := codes[value]; ok {
		return code
	}
	return -1
}

// PredictProba returns P(liked) for one sample.
func (m *Model) PredictProba(s sample) float64 {
	row := m.encode(s)
	score := m.BaseScore
	for _, t := range m.Trees {
		score += learningRate * t.predict(row)
	}
	return sigmoid(score)
}

func (t *tree) predict(row []float64) float64 {
	i := 0
	for {
		n := t.Nodes[i]
		if n.Leaf {
			return n.Value
		}
		if row[n.Feature] <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

// trainModel fits the ensemble on the given samples and binary labels.
// Class weights are balanced so a like-heavy label set does not collapse to
// the majority class. Training is fully deterministic: no sampling, features
// scanned in order, ties broken by the first candidate.
func trainModel(samples []sample, labels []int) *Model {
	m := &Model{
		ContentTypes: buildEncoder(samples, func(s sample) string { return s.contentType }),
		Sources:      buildEncoder(samples, func(s sample) string { return s.source }),
		FeatureNames: featureNames,
		Importance:   make(map[string]float64),
	}

	n := len(samples)
	rows := make([][]float64, n)
	for i, s := range samples {
		rows[i] = m.encode(s)
	}

	// Balanced class weights: w_c = n / (2 * n_c).
	var positives int
	for _, y := range labels {
		positives += y
	}
	negatives := n - positives
	weights := make([]float64, n)
	for i, y := range labels {
		if y == 1 {
			weights[i] = float64(n) / (2 * float64(positives))
		} else {
			weights[i] = float64(n) / (2 * float64(negatives))
		}
	}

	// Initial log-odds from the weighted positive rate.
	var wpos, wtotal float64
	for i, y := range labels {
		wtotal += weights[i]
		if y == 1 {
			wpos += weights[i]
		}
	}
	p0 := clampProb(wpos / wtotal)
	m.BaseScore = math.Log(p0 / (1 - p0))

	scores := make([]float64, n)
	for i := range scores {
		scores[i] = m.BaseScore
	}

	grads := make([]float64, n)
	hess := make([]float64, n)
	indices := make([]int, n)

	for round := 0; round < boostRounds; round++ {
		for i := range rows {
			p := sigmoid(scores[i])
			grads[i] = weights[i] * (p - float64(labels[i]))
			hess[i] = weights[i] * p * (1 - p)
			indices[i] = i
		}

		t := buildTree(rows, grads, hess, indices, m.Importance)
		m.Trees = append(m.Trees, t)

		for i, row := range rows {
			scores[i] += learningRate * t.predict(row)
		}
	}

	normalizeImportance(m.Importance)
	return m
}

// buildTree grows one regression tree on the gradient statistics using
// Newton leaf values, greedy exact splits, and a fixed depth limit.
func buildTree(rows [][]float64, grads, hess []float64, indices []int, importance map[string]float64) tree {
	t := tree{}
	var grow func(idx []int, depth int) int
	grow = func(idx []int, depth int) int {
		var gSum, hSum float64
		for _, i := range idx {
			gSum += grads[i]
			hSum += hess[i]
		}

		nodeIdx := len(t.Nodes)
		t.Nodes = append(t.Nodes, treeNode{})

		if depth >= maxTreeDepth || len(idx) < 2 {
			t.Nodes[nodeIdx] = leafNode(gSum, hSum)
			return nodeIdx
		}

		feature, threshold, gain := bestSplit(rows, grads, hess, idx, gSum, hSum)
		if gain <= minSplitGain {
			t.Nodes[nodeIdx] = leafNode(gSum, hSum)
			return nodeIdx
		}
		importance[featureNames[feature]] += gain

		var left, right []int
		for _, i := range idx {
			if rows[i][feature] <= threshold {
				left = append(left, i)
			} else {
				right = append(right, i)
			}
		}

		leftIdx := grow(left, depth+1)
		rightIdx := grow(right, depth+1)
		t.Nodes[nodeIdx] = treeNode{
			Feature:   feature,
			Threshold: threshold,
			Left:      leftIdx,
			Right:     rightIdx,
		}
		return nodeIdx
	}
	grow(indices, 0)
	return t
}

func leafNode(gSum, hSum float64) treeNode {
	return treeNode{Leaf: true, Value: -gSum / (hSum + l2Lambda)}
}

// bestSplit scans every feature and every boundary between distinct sorted
// values, scoring candidates with the standard second-order gain.
func bestSplit(rows [][]float64, grads, hess []float64, idx []int, gSum, hSum float64) (feature int, threshold, gain float64) {
	feature = -1
	parentScore := gSum * gSum / (hSum + l2Lambda)

	order := make([]int, len(idx))
	for f := 0; f < len(rows[0]); f++ {
		copy(order, idx)
		sort.SliceStable(order, func(a, b int) bool {
			return rows[order[a]][f] < rows[order[b]][f]
		})

		var gLeft, hLeft float64
		for k := 0; k < len(order)-1; k++ {
			i := order[k]
			gLeft += grads[i]
			hLeft += hess[i]

			cur, next := rows[i][f], rows[order[k+1]][f]
			if cur == next {
				continue
			}
			gRight := gSum - gLeft
			hRight := hSum - hLeft
			candidate := gLeft*gLeft/(hLeft+l2Lambda) +
				gRight*gRight/(hRight+l2Lambda) - parentScore
			if candidate > gain {
				gain = candidate
				feature = f
				threshold = (cur + next) / 2
			}
		}
	}
	if feature < 0 {
		return 0, 0, 0
	}
	return feature, threshold, gain
}

// buildEncoder assigns each distinct categorical value a stable index in
// sorted order.
func buildEncoder(samples []sample, key func(sample) string) map[string]float64 {
	seen := map[string]bool{}
	for _, s := range samples {
		seen[key(s)] = true
	}
	values := make([]string, 0, len(seen))
	for v := range seen {
		values = append(values, v)
	}
	sort.Strings(values)

	codes := make(map[string]float64, len(values))
	for i, v := range values {
		codes[v] = float64(i)
	}
	return codes
}

func normalizeImportance(importance map[string]float64) {
	var total float64
	for _, v := range importance {
		total += v
	}
	if total == 0 {
		return
	}
	for k, v := range importance {
		importance[k] = math.Round(v/total*100*100) / 100
	}
}

func clampProb(p float64) float64 {
	const eps = 1e-6
	return math.Min(1-eps, math.Max(eps, p))
}
