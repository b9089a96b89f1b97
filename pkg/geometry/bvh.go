package geometry

import "github.com/neuroscope/go-neuroscope/pkg/core"

// BVHNode represents a node in the Bounding Volume Hierarchy
type BVHNode struct {
	BoundingBox core.AABB
	Left        *BVHNode
	Right       *BVHNode
	Shapes      []Shape // Multiple shapes for leaf nodes (nil for internal nodes)
}

// BVH represents a Bounding Volume Hierarchy for fast ray-primitive intersection
type BVH struct {
	Root *BVHNode
}

// NewBVH constructs a BVH from a slice of shapes
func NewBVH(shapes []Shape) *BVH {
	if len(shapes) == 0 {
		return &BVH{}
	}

	// Partitioning reorders the slice; keep the caller's order intact
	shapesCopy := make([]Shape, len(shapes))
	copy(shapesCopy, shapes)

	return &BVH{Root: buildBVH(shapesCopy)}
}

// Leaf threshold: if we have this many or fewer shapes, store them in a leaf node
const leafThreshold = 8

// buildBVH recursively builds the BVH using median splits along the longest axis
func buildBVH(shapes []Shape) *BVHNode {
	boundingBox := shapes[0].BoundingBox()
	for i := 1; i < len(shapes); i++ {
		boundingBox = boundingBox.Union(shapes[i].BoundingBox())
	}

	if len(shapes) <= leafThreshold {
		return &BVHNode{
			BoundingBox: boundingBox,
			Shapes:      shapes,
		}
	}

	axis, splitPos, ok := findSplit(boundingBox)
	if !ok {
		return &BVHNode{
			BoundingBox: boundingBox,
			Shapes:      shapes,
		}
	}

	leftShapes, rightShapes := partitionShapes(shapes, axis, splitPos)

	// Ensure we don't create empty partitions
	if len(leftShapes) == 0 || len(rightShapes) == 0 {
		return &BVHNode{
			BoundingBox: boundingBox,
			Shapes:      shapes,
		}
	}

	return &BVHNode{
		BoundingBox: boundingBox,
		Left:        buildBVH(leftShapes),
		Right:       buildBVH(rightShapes),
	}
}

// findSplit picks the longest axis of the box and its midpoint
func findSplit(boundingBox core.AABB) (axis int, splitPos float32, ok bool) {
	axis = boundingBox.LongestAxis()
	minVal := boundingBox.Min.Component(axis)
	maxVal := boundingBox.Max.Component(axis)

	// Skip if no extent along this axis
	if maxVal <= minVal {
		return 0, 0, false
	}
	return axis, (minVal + maxVal) * 0.5, true
}

// partitionShapes splits shapes by bounding box center along axis
func partitionShapes(shapes []Shape, axis int, splitPos float32) ([]Shape, []Shape) {
	var leftShapes, rightShapes []Shape
	for _, shape := range shapes {
		if shape.BoundingBox().Center().Component(axis) < splitPos {
			leftShapes = append(leftShapes, shape)
		} else {
			rightShapes = append(rightShapes, shape)
		}
	}
	return leftShapes, rightShapes
}

// Hit finds the nearest intersection with any shape in the BVH
func (bvh *BVH) Hit(ray core.Ray, tMin, tMax float32, rec *HitRecord) bool {
	if bvh.Root == nil {
		return false
	}
	return bvh.hitNode(bvh.Root, ray, tMin, tMax, rec)
}

// hitNode recursively tests ray intersection with BVH nodes
func (bvh *BVH) hitNode(node *BVHNode, ray core.Ray, tMin, tMax float32, rec *HitRecord) bool {
	if !node.BoundingBox.Hit(ray, tMin, tMax) {
		return false
	}

	hitAnything := false
	closestSoFar := tMax

	if node.Shapes != nil {
		for _, shape := range node.Shapes {
			if shape.Hit(ray, tMin, closestSoFar, rec) {
				hitAnything = true
				closestSoFar = rec.T
			}
		}
		return hitAnything
	}

	if node.Left != nil && bvh.hitNode(node.Left, ray, tMin, closestSoFar, rec) {
		hitAnything = true
		closestSoFar = rec.T
	}
	if node.Right != nil && bvh.hitNode(node.Right, ray, tMin, closestSoFar, rec) {
		hitAnything = true
	}
	return hitAnything
}

// BoundingBox returns the overall bounding box of the BVH
func (bvh *BVH) BoundingBox() core.AABB {
	if bvh.Root == nil {
		return core.AABB{}
	}
	return bvh.Root.BoundingBox
}

// BVHStats contains statistics about the BVH structure
type BVHStats struct {
	TotalNodes  int
	LeafNodes   int
	MaxDepth    int
	AvgDepth    float64
	TotalShapes int
}

// Stats returns statistics about the BVH structure
func (bvh *BVH) Stats() BVHStats {
	if bvh.Root == nil {
		return BVHStats{}
	}

	stats := BVHStats{}
	collectStats(bvh.Root, 0, &stats)

	if stats.LeafNodes > 0 {
		stats.AvgDepth = stats.AvgDepth / float64(stats.LeafNodes)
	}
	return stats
}

func collectStats(node *BVHNode, depth int, stats *BVHStats) {
	stats.TotalNodes++
	stats.MaxDepth = max(stats.MaxDepth, depth)

	if node.Shapes != nil {
		stats.LeafNodes++
		stats.TotalShapes += len(node.Shapes)
		stats.AvgDepth += float64(depth) // Accumulated, averaged in Stats
		return
	}

	if node.Left != nil {
		collectStats(node.Left, depth+1, stats)
	}
	if node.Right != nil {
		collectStats(node.Right, depth+1, stats)
	}
}
