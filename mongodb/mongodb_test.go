package mongodb

import (
	"errors"
	"testing"

	"go.mongodb.org/mongo-driver/mongo"
)

func TestIsRejection(t *testing.T) {
	bulk := mongo.BulkWriteException{
		WriteErrors: []mongo.BulkWriteError{{WriteError: mongo.WriteError{Code: 121, Message: "Document failed validation"}}},
	}
	if !isRejection(bulk) {
		t.Fatalf("expected bulk write exception to be a rejection")
	}
	if !isRejection(mongo.CommandError{Code: 13, Message: "unauthorized"}) {
		t.Fatalf("expected command error to be a rejection")
	}
	if isRejection(errors.New("server selection error: context deadline exceeded")) {
		t.Fatalf("expected plain error not to be a rejection")
	}
}
