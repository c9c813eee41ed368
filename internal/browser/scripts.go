package browser

import (
	"encoding/json"
	"fmt"
)

// Page-side expressions shared by both drivers. Each is a self-contained
// expression; rod wraps them in an arrow function.

func jsString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

func queryAllExpr(selector string) string {
	return fmt.Sprintf(`(() => Array.from(document.querySelectorAll(%s)).map((el) => ({
  text: (el.textContent || '').replace(/\s+/g, ' ').trim(),
  value: typeof el.value === 'string' ? el.value : '',
  attributes: Object.fromEntries(Array.from(el.attributes).map((a) => [a.name, a.value])),
})))()`, jsString(selector))
}

func outerHTMLExpr(selector string) string {
	return fmt.Sprintf(`(() => { const el = document.querySelector(%s); return el ? el.outerHTML : ''; })()`, jsString(selector))
}

func countExpr(selector string) string {
	return fmt.Sprintf(`document.querySelectorAll(%s).length`, jsString(selector))
}

func selectTextExpr(selector string) string {
	return fmt.Sprintf(`(() => {
  const el = document.querySelector(%s);
  if (!el) { return false; }
  el.focus();
  if (typeof el.select === 'function') { el.select(); }
  return true;
})()`, jsString(selector))
}

const stampKey = "__stagecheckStamp"

func stampExpr(token string) string {
	return fmt.Sprintf(`(() => { window[%s] = %s; return true; })()`, jsString(stampKey), jsString(token))
}

const scrollTopExpr = `(() => { window.scrollTo(0, 0); return true; })()`

// conditionsExpr evaluates to the 1-based index of the first condition that
// holds, or 0.
func conditionsExpr(conds []Condition) string {
	b, err := json.Marshal(conds)
	if err != nil {
		b = []byte("[]")
	}
	return fmt.Sprintf(`(() => {
  const conds = %s;
  const norm = (u) => {
    try {
      const x = new URL(u, window.location.href);
      return x.protocol + '//' + x.host + x.pathname.replace(/\/+$/, '');
    } catch (e) {
      return u;
    }
  };
  for (let i = 0; i < conds.length; i++) {
    const c = conds[i];
    if (c.urlNot && norm(window.location.href) === norm(c.urlNot)) { continue; }
    if (c.unstamped && window[%s] === c.unstamped) { continue; }
    if (c.selector) {
      const els = Array.from(document.querySelectorAll(c.selector));
      if (els.length === 0) { continue; }
      if (c.text && !els.some((el) => (el.textContent || '').replace(/\s+/g, ' ').trim() === c.text)) { continue; }
    }
    return i + 1;
  }
  return 0;
})()`, b, jsString(stampKey))
}
