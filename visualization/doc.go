// Package visualization projects original and synthetic series to two
// dimensions with PCA or t-SNE and plots them on top of each other.
package visualization
