// Package s3 provides a blobstore.Store backed by Amazon S3.
//
// Uploads go through the SDK's upload manager, so large report archives are
// split into parallel multipart uploads transparently.
//
//	cfg, _ := config.LoadDefaultConfig(ctx)
//	store := s3.NewStore(awss3.NewFromConfig(cfg), "my-bucket", "alerts/")
package s3
