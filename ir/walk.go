// Copyright 2026 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package ir

// WalkExpr visits expr and all of its sub-expressions in pre-order.
// The walk stops early if visit returns false.
func WalkExpr(expr Expr, visit func(Expr) bool) bool {
	if expr == nil {
		return true
	}
	if !visit(expr) {
		return false
	}
	switch exprT := expr.(type) {
	case *Tuple:
		for _, item := range exprT.Items {
			if !WalkExpr(item, visit) {
				return false
			}
		}
	case *Unary:
		return WalkExpr(exprT.X, visit)
	case *Binary:
		if !WalkExpr(exprT.X, visit) {
			return false
		}
		return WalkExpr(exprT.Y, visit)
	case *Cond:
		if !WalkExpr(exprT.If, visit) {
			return false
		}
		if !WalkExpr(exprT.Then, visit) {
			return false
		}
		return WalkExpr(exprT.Else, visit)
	case *StrandRemap:
		for _, mapping := range exprT.Mappings {
			if !WalkExpr(mapping.X, visit) {
				return false
			}
		}
	case *Call:
		for _, arg := range exprT.Args {
			if !WalkExpr(arg, visit) {
				return false
			}
		}
	}
	return true
}

// WalkStmts visits every expression appearing in stmts, including
// expressions nested in spindle bodies.
func WalkStmts(stmts []Stmt, visit func(Expr) bool) bool {
	for _, stmt := range stmts {
		switch stmtT := stmt.(type) {
		case *InstanceBinding:
			for _, out := range stmtT.Outputs {
				if !WalkExpr(out.X, visit) {
					return false
				}
			}
		case *OutputStmt:
			for _, arg := range stmtT.AllArgs() {
				if !WalkExpr(arg, visit) {
					return false
				}
			}
		case *SpindleDef:
			if !WalkStmts(stmtT.Body, visit) {
				return false
			}
		case *Let:
			if !WalkExpr(stmtT.X, visit) {
				return false
			}
		case *Assign:
			if !WalkExpr(stmtT.X, visit) {
				return false
			}
		case *For:
			if !WalkExpr(stmtT.From, visit) {
				return false
			}
			if !WalkExpr(stmtT.To, visit) {
				return false
			}
			if !WalkStmts(stmtT.Body, visit) {
				return false
			}
		}
	}
	return true
}

// Strands calls visit for every strand reference in expr: the target of
// every StrandAccess and StrandRemap, in pre-order.
func Strands(expr Expr, visit func(instance, output string)) {
	WalkExpr(expr, func(sub Expr) bool {
		switch subT := sub.(type) {
		case *StrandAccess:
			visit(subT.Instance, subT.Output)
		case *StrandRemap:
			visit(subT.Instance, subT.Output)
		}
		return true
	})
}
