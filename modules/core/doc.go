// Package core binds the core native routines: matrices, clustering,
// polar transforms and the process-wide thread settings.
//
// Host names registered by Register:
//
//	getBuildInformation  getNumThreads  setNumThreads  getThreadNum
//	partition  kmeans
//	cartToPolar  cartToPolarAsync  polarToCart  polarToCartAsync
//	Mat  Mat.at  Mat.getData  Mat.sum  Mat.sumAsync  Mat.release
package core
