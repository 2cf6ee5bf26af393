// Package chart turns preview rows into chart series and renders them.
//
// Build and Sort are pure; Render draws a series with go-chart.
package chart
