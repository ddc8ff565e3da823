package studio

import (
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sagemaker"
	sagemakertypes "github.com/aws/aws-sdk-go-v2/service/sagemaker/types"

	"github.com/modelfold/smops/pkg/naming"
)

// SettingsFromProperties converts the loosely-typed UserSettings object from
// CloudFormation resource properties into the SDK shape, through its JSON
// form.
func SettingsFromProperties(props map[string]interface{}) (*sagemakertypes.UserSettings, error) {
	raw, err := json.Marshal(props)
	if err != nil {
		return nil, fmt.Errorf("encode user settings: %w", err)
	}
	var settings sagemakertypes.UserSettings
	if err := json.Unmarshal(raw, &settings); err != nil {
		return nil, fmt.Errorf("decode user settings: %w", err)
	}
	return &settings, nil
}

// structToMap converts an SDK struct to a generic map through its JSON form.
// Nil fields disappear so resource outputs stay sparse.
func structToMap(v interface{}) map[string]interface{} {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	var m map[string]interface{}
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil
	}
	pruneNulls(m)
	return m
}

func pruneNulls(m map[string]interface{}) {
	for k, v := range m {
		switch val := v.(type) {
		case nil:
			delete(m, k)
		case map[string]interface{}:
			pruneNulls(val)
			if len(val) == 0 {
				delete(m, k)
			}
		}
	}
}

// Flatten rewrites nested maps in obj to dot-notation top-level keys, so they
// can be read with CloudFormation's GetAtt (which has no nested object
// support). Lists below the top level are dropped: there is no usable GetAtt
// path to address their elements.
func Flatten(obj map[string]interface{}) map[string]interface{} {
	out := map[string]interface{}{}
	flattenInto(out, obj, "")
	return out
}

func flattenInto(out map[string]interface{}, obj map[string]interface{}, parent string) {
	for rawKey, val := range obj {
		if parent != "" {
			if _, isList := val.([]interface{}); isList {
				continue
			}
		}
		key := rawKey
		if parent != "" {
			key = parent + "." + rawKey
		}
		if nested, ok := val.(map[string]interface{}); ok {
			flattenInto(out, nested, key)
			continue
		}
		out[key] = val
	}
}

// ProfileOutputs derives CloudFormation resource outputs from a user profile
// description:
//
//   - identity props are passed through as-is
//   - UserSettings contents are hoisted to top level and nested objects are
//     flattened with dot notation (e.g. SharingSettings.S3OutputPath)
//   - ExecutionRoleName is derived from the execution role ARN
func ProfileOutputs(desc *sagemaker.DescribeUserProfileOutput) map[string]interface{} {
	out := map[string]interface{}{}
	putString(out, "DomainId", desc.DomainId)
	putString(out, "UserProfileArn", desc.UserProfileArn)
	putString(out, "UserProfileName", desc.UserProfileName)
	putString(out, "HomeEfsFileSystemUid", desc.HomeEfsFileSystemUid)
	putString(out, "SingleSignOnUserIdentifier", desc.SingleSignOnUserIdentifier)
	putString(out, "SingleSignOnUserValue", desc.SingleSignOnUserValue)
	if desc.Status != "" {
		out["Status"] = string(desc.Status)
	}

	if desc.UserSettings == nil {
		return out
	}
	flat := Flatten(structToMap(desc.UserSettings))
	for k, v := range flat {
		out[k] = v
	}
	if role := aws.ToString(desc.UserSettings.ExecutionRole); role != "" {
		out["ExecutionRoleName"] = naming.RoleNameFromARN(role)
	}
	return out
}
