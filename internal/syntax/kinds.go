package syntax

import "fmt"

// NodeKind identifies a CST node kind. Unlike a tree-sitter grammar, kind ids
// are assigned by this package directly: there is no external grammar to
// delegate to.
type NodeKind uint16

// NodeKind values. The grouping (statements, expressions, auxiliary lists,
// doc-comment tags, type expressions) mirrors the grammar sections in
// parser.go and doc_parser.go.
const (
	KindNone NodeKind = iota

	// Top level.
	KindChunk
	KindBlock

	// Statements.
	KindLocalStat
	KindAssignStat
	KindCallStat
	KindDoStat
	KindWhileStat
	KindRepeatStat
	KindIfStat
	KindElseifClause
	KindElseClause
	KindNumericForStat
	KindGenericForStat
	KindFunctionStat
	KindLocalFunctionStat
	KindReturnStat
	KindBreakStat
	KindGotoStat
	KindLabelStat
	KindContinueStat
	KindEmptyStat
	KindErrorStat

	// Expressions.
	KindNilExpr
	KindTrueExpr
	KindFalseExpr
	KindNumberExpr
	KindStringExpr
	KindVarargExpr
	KindFunctionExpr
	KindParenExpr
	KindNameExpr
	KindDotIndexExpr
	KindBracketIndexExpr
	KindCallExpr
	KindMethodCallExpr
	KindBinaryExpr
	KindUnaryExpr
	KindTableExpr
	KindTableFieldPositional
	KindTableFieldNamed
	KindTableFieldIndexed
	KindErrorExpr

	// Auxiliary structure.
	KindNameList
	KindExprList
	KindParamList
	KindFuncBody
	KindFuncName
	KindAttrib

	// Doc comments.
	KindDocComment
	KindDocDescription
	KindDocClassTag
	KindDocFieldTag
	KindDocTypeTag
	KindDocParamTag
	KindDocReturnTag
	KindDocAliasTag
	KindDocEnumTag
	KindDocEnumField
	KindDocCastTag
	KindDocGenericTag
	KindDocGenericParam
	KindDocOverloadTag
	KindDocSeeTag
	KindDocExportTag
	KindDocMetaTag
	KindDocDiagnosticTag
	KindDocSourceTag
	KindDocVersionTag
	KindDocDeprecatedTag
	KindDocAttributeTag

	// Type expressions.
	KindTypeName
	KindTypeUnion
	KindTypeIntersection
	KindTypeArray
	KindTypeTuple
	KindTypeObject
	KindTypeObjectField
	KindTypeGeneric
	KindTypeFunction
	KindTypeFunctionParam
	KindTypeVariadic
	KindTypeLiteral
	KindTypeParen
	KindTypeOptional
)

var nodeKindNames = map[NodeKind]string{
	KindNone:                 "None",
	KindChunk:                "Chunk",
	KindBlock:                "Block",
	KindLocalStat:            "LocalStat",
	KindAssignStat:           "AssignStat",
	KindCallStat:             "CallStat",
	KindDoStat:               "DoStat",
	KindWhileStat:            "WhileStat",
	KindRepeatStat:           "RepeatStat",
	KindIfStat:               "IfStat",
	KindElseifClause:         "ElseifClause",
	KindElseClause:           "ElseClause",
	KindNumericForStat:       "NumericForStat",
	KindGenericForStat:       "GenericForStat",
	KindFunctionStat:         "FunctionStat",
	KindLocalFunctionStat:    "LocalFunctionStat",
	KindReturnStat:           "ReturnStat",
	KindBreakStat:            "BreakStat",
	KindGotoStat:             "GotoStat",
	KindLabelStat:            "LabelStat",
	KindContinueStat:         "ContinueStat",
	KindEmptyStat:            "EmptyStat",
	KindErrorStat:            "ErrorStat",
	KindNilExpr:              "NilExpr",
	KindTrueExpr:             "TrueExpr",
	KindFalseExpr:            "FalseExpr",
	KindNumberExpr:           "NumberExpr",
	KindStringExpr:           "StringExpr",
	KindVarargExpr:           "VarargExpr",
	KindFunctionExpr:         "FunctionExpr",
	KindParenExpr:            "ParenExpr",
	KindNameExpr:             "NameExpr",
	KindDotIndexExpr:         "DotIndexExpr",
	KindBracketIndexExpr:     "BracketIndexExpr",
	KindCallExpr:             "CallExpr",
	KindMethodCallExpr:       "MethodCallExpr",
	KindBinaryExpr:           "BinaryExpr",
	KindUnaryExpr:            "UnaryExpr",
	KindTableExpr:            "TableExpr",
	KindTableFieldPositional: "TableFieldPositional",
	KindTableFieldNamed:      "TableFieldNamed",
	KindTableFieldIndexed:    "TableFieldIndexed",
	KindErrorExpr:            "ErrorExpr",
	KindNameList:             "NameList",
	KindExprList:             "ExprList",
	KindParamList:            "ParamList",
	KindFuncBody:             "FuncBody",
	KindFuncName:             "FuncName",
	KindAttrib:               "Attrib",
	KindDocComment:           "DocComment",
	KindDocDescription:       "DocDescription",
	KindDocClassTag:          "DocClassTag",
	KindDocFieldTag:          "DocFieldTag",
	KindDocTypeTag:           "DocTypeTag",
	KindDocParamTag:          "DocParamTag",
	KindDocReturnTag:         "DocReturnTag",
	KindDocAliasTag:          "DocAliasTag",
	KindDocEnumTag:           "DocEnumTag",
	KindDocEnumField:         "DocEnumField",
	KindDocCastTag:           "DocCastTag",
	KindDocGenericTag:        "DocGenericTag",
	KindDocGenericParam:      "DocGenericParam",
	KindDocOverloadTag:       "DocOverloadTag",
	KindDocSeeTag:            "DocSeeTag",
	KindDocExportTag:         "DocExportTag",
	KindDocMetaTag:           "DocMetaTag",
	KindDocDiagnosticTag:     "DocDiagnosticTag",
	KindDocSourceTag:         "DocSourceTag",
	KindDocVersionTag:        "DocVersionTag",
	KindDocDeprecatedTag:     "DocDeprecatedTag",
	KindDocAttributeTag:      "DocAttributeTag",
	KindTypeName:             "TypeName",
	KindTypeUnion:            "TypeUnion",
	KindTypeIntersection:     "TypeIntersection",
	KindTypeArray:            "TypeArray",
	KindTypeTuple:            "TypeTuple",
	KindTypeObject:           "TypeObject",
	KindTypeObjectField:      "TypeObjectField",
	KindTypeGeneric:          "TypeGeneric",
	KindTypeFunction:         "TypeFunction",
	KindTypeFunctionParam:    "TypeFunctionParam",
	KindTypeVariadic:         "TypeVariadic",
	KindTypeLiteral:          "TypeLiteral",
	KindTypeParen:            "TypeParen",
	KindTypeOptional:         "TypeOptional",
}

// KindName resolves a NodeKind to a human-readable name, used in debug
// rendering and diagnostic messages.
func KindName(kind NodeKind) string {
	if s, ok := nodeKindNames[kind]; ok {
		return s
	}
	return fmt.Sprintf("NodeKind(%d)", kind)
}
