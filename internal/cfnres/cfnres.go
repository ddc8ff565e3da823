// Package cfnres adapts our resource logic to the CloudFormation custom
// resource protocol: request-type dispatch, structured logging, and helpers
// for the loosely-typed resource properties CloudFormation delivers.
package cfnres

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/aws/aws-lambda-go/cfn"

	"github.com/modelfold/smops/telemetry"
)

// Handler implements one custom resource type. Each method returns the
// physical resource ID and the Data attributes for the CloudFormation
// response; a returned error is reported to CloudFormation as FAILED.
type Handler interface {
	Create(ctx context.Context, event cfn.Event) (string, map[string]interface{}, error)
	Update(ctx context.Context, event cfn.Event) (string, map[string]interface{}, error)
	Delete(ctx context.Context, event cfn.Event) (string, map[string]interface{}, error)
}

// Wrap dispatches CloudFormation events to the handler with logging. The
// result feeds cfn.LambdaWrap, which owns delivery of the response to the
// pre-signed S3 URL.
func Wrap(name string, h Handler, logger *telemetry.Logger) cfn.CustomResourceFunction {
	return func(ctx context.Context, event cfn.Event) (string, map[string]interface{}, error) {
		log := logger.WithContext(ctx)
		log.Info().
			Str("resource", name).
			Str("request_type", string(event.RequestType)).
			Str("physical_id", event.PhysicalResourceID).
			Msg("handling CloudFormation event")

		var (
			physicalID string
			data       map[string]interface{}
			err        error
		)
		switch event.RequestType {
		case cfn.RequestCreate:
			physicalID, data, err = h.Create(ctx, event)
		case cfn.RequestUpdate:
			physicalID, data, err = h.Update(ctx, event)
		case cfn.RequestDelete:
			physicalID, data, err = h.Delete(ctx, event)
		default:
			err = fmt.Errorf("unsupported CloudFormation request type %q", event.RequestType)
		}

		if err != nil {
			log.Error().Err(err).
				Str("resource", name).
				Str("request_type", string(event.RequestType)).
				Msg("custom resource handler failed")
			// Deletes keep their physical ID so CloudFormation can still
			// correlate the failure with the right resource.
			if physicalID == "" {
				physicalID = event.PhysicalResourceID
			}
			return physicalID, nil, err
		}

		log.Info().
			Str("resource", name).
			Str("physical_id", physicalID).
			Msg("custom resource handled")
		return physicalID, data, nil
	}
}

// StringProp reads a string resource property, empty when absent.
func StringProp(props map[string]interface{}, key string) string {
	if v, ok := props[key].(string); ok {
		return v
	}
	return ""
}

// RequireStringProp reads a mandatory string resource property.
func RequireStringProp(props map[string]interface{}, key string) (string, error) {
	v := StringProp(props, key)
	if v == "" {
		return "", fmt.Errorf("resource property %s is required", key)
	}
	return v, nil
}

// BoolProp reads a boolean resource property. CloudFormation passes
// properties as strings, so "true"/"false" (and friends) are accepted
// alongside real booleans.
func BoolProp(props map[string]interface{}, key string) bool {
	switch v := props[key].(type) {
	case bool:
		return v
	case string:
		parsed, err := strconv.ParseBool(strings.ToLower(v))
		return err == nil && parsed
	default:
		return false
	}
}

// MapProp reads a nested object resource property, nil when absent.
func MapProp(props map[string]interface{}, key string) map[string]interface{} {
	if v, ok := props[key].(map[string]interface{}); ok {
		return v
	}
	return nil
}
