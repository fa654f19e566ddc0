package memory_test

import "go.mongodb.org/mongo-driver/bson/primitive"

func primitiveID() primitive.ObjectID { return primitive.NewObjectID() }
