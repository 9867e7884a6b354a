// Package mongo implements session.Adapter on MongoDB with the official v2 driver.
//
// Each namespace maps to a collection in Config.Database. Documents use the
// session key as _id and carry the encoded payload plus a last_access date
// that is indexed for expiry scans.
//
//	svc := session.New(mongo.NewAdapter(mongo.Config{Database: "app"}),
//		session.WithBackendAddress("mongo.internal"),
//	)
package mongo
