package rustscript

// prelude is evaluated into every new global scope after the builtins are
// installed. Ranges are half-open; list comprehensions desugar to fmap and
// filter.
const prelude = `
let range = fn(a, b) => if (a < b) then ([a] + range(a + 1, b)) else ([])
let fmap = fn(f, ls) => if (ls) then ([f(^ls)] + fmap(f, $ls)) else ([])
let filter = fn(f, ls) => if (ls) then (if (f(^ls)) then ([^ls] + filter(f, $ls)) else (filter(f, $ls))) else ([])
let fold = fn(f, acc, ls) => if (ls) then (fold(f, f(acc, ^ls), $ls)) else (acc)
let sum = fn(ls) => fold(fn(a, b) => a + b, 0, ls)
let product = fn(ls) => fold(fn(a, b) => a * b, 1, ls)
let reverse = fn(ls) => fold(fn(rs, el) => [el] + rs, [], ls)
let seq = fn(ls) => ^reverse(ls)
let has = fn(val) => typeof(val) != "Unit"
`
