package connector

import "github.com/ceyewan/idstore/xerrors"

var (
	ErrConnection    = xerrors.New("connector: connection failed")
	ErrConfig        = xerrors.New("connector: invalid config")
	ErrClientNil     = xerrors.New("connector: client not initialized")
	ErrHealthCheck   = xerrors.New("connector: health check failed")
	ErrUnknownDriver = xerrors.New("connector: unknown driver")
)
