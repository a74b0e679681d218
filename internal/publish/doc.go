// Package publish delivers the finished dub.
//
// Local copies artifacts into the library directory with verified copies.
// S3 uploads them to any S3-compatible bucket under an optional key prefix,
// skipping objects that already exist with the same size.
package publish
