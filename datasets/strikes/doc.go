// Package strikes loads recorded martial-arts strikes: one pose of 34
// keypoints per row, five auxiliary annotation integers and a category label.
package strikes
