package repository

import (
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

func uuidFromByte(b byte) uuid.UUID {
	var arr [16]byte
	arr[15] = b
	return uuid.UUID(arr)
}

func pgUUIDFromByte(b byte) pgtype.UUID {
	return pgtype.UUID{Bytes: uuidFromByte(b), Valid: true}
}
