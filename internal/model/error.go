package model

import "errors"

var ErrorInvalidExternalID = errors.New("invalid external ID")
var ErrorAlreadyVerified = errors.New("ID already verified")
var ErrorPendingExists = errors.New("verification already in progress")
var ErrorNoPendingRecord = errors.New("no pending verification")
var ErrorUnknownMod = errors.New("unknown mod")
var ErrorDuplicateMod = errors.New("mod already selected")
var ErrorPremiumExhausted = errors.New("premium mod already selected")
var ErrorStoreUnavailable = errors.New("remote store unavailable")
var ErrorWriteConflict = errors.New("write conflict")
