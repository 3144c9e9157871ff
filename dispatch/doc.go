// Package dispatch implements the todo function handler: it maps the
// operation named in a Request onto a table operation and returns the store
// result unchanged.
//
// A missing operation scans the whole table and "echo" returns the payload
// without touching the store. Every other operation requires a payload that
// is decoded strictly per operation, so only the fields and attributes a todo
// needs ever reach the store:
//
//	create  {"Item": {"id": "...", "text": "..."}}
//	read    {"Key": {"id": "..."}}
//	update  {"Key": {"id": "..."}, "UpdateExpression": "SET #text = :text",
//	         "ExpressionAttributeNames": {"#text": "text"},
//	         "ExpressionAttributeValues": {":text": "..."}, "ReturnValues": "ALL_NEW"}
//	delete  {"Key": {"id": "..."}, "ReturnValues": "ALL_OLD"}
//
// A TableName in the payload is accepted and always replaced by the
// configured table.
package dispatch
